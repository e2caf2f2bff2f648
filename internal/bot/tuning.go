package bot

// Tuning holds the probability cut points of the standard bidding policy and
// the hand-strength thresholds the tactical strategy bids on.
type Tuning struct {
	// PassBelow: a draw under this always passes.
	PassBelow float64
	// GrimBelow: a draw in [PassBelow, GrimBelow) bids Grim when nothing stands.
	GrimBelow float64

	// GrimStrength is the tactical hand score needed to open with Grim.
	GrimStrength int
	// DoubleStrength is the tactical hand score needed to overcall with DoubleGrim.
	DoubleStrength int
}

// DefaultTuning passes 80% of the time and bids Grim on 15% of open auctions.
var DefaultTuning = Tuning{
	PassBelow:      0.80,
	GrimBelow:      0.95,
	GrimStrength:   10,
	DoubleStrength: 12,
}
