package domain

const (
	// ShortRound is the cards dealt per seat in Round1 and Round2.
	ShortRound = 4
	// LongRound is the cards held per seat in Round3 and Make-5.
	LongRound = 8

	// DefaultDeals is the match length used when a config omits it.
	DefaultDeals = 12
)

// PredeclaredTrump is fixed when Round1 ends in four passes and is used if
// the deal falls through to Make-5.
const PredeclaredTrump = SuitSpades

// Sub-seed tags. Every random draw is derived from the match seed plus one of
// these, so a replay with the same seed reproduces it.
const (
	SeedTagDeal       = "_deal"
	SeedTagCoinToss   = "_cointoss"
	SeedTagManualToss = "_manual"
)
