package domain

import (
	"fmt"
	"sort"
)

// DeckSize is the number of cards in a Grim deck.
const DeckSize = 32

// NewDeck returns the 32 cards in suit-major (S,H,D,C), rank-minor (7..A) order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}

// ShuffleDeck returns a permutation of deck determined entirely by seed.
func ShuffleDeck(deck []Card, seed string) []Card {
	return Shuffle(NewRand(seed), deck)
}

// DealCards distributes perPlayer cards to each of players hands round-robin:
// hand i receives deck[i], deck[i+players], deck[i+2*players], ...
func DealCards(deck []Card, perPlayer, players int) ([][]Card, error) {
	if players <= 0 || perPlayer < 0 || perPlayer*players > len(deck) {
		return nil, fmt.Errorf("%w: cannot deal %d x %d from %d cards", ErrInvariant, perPlayer, players, len(deck))
	}
	hands := make([][]Card, players)
	for i := range hands {
		hands[i] = make([]Card, 0, perPlayer)
	}
	for i := 0; i < perPlayer*players; i++ {
		hands[i%players] = append(hands[i%players], deck[i])
	}
	return hands, nil
}

// SortHand returns a copy of cards ordered by suit (S,H,D,C) then rank (7..A).
func SortHand(cards []Card) []Card {
	out := append([]Card(nil), cards...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := suitIndex(out[i].Suit), suitIndex(out[j].Suit)
		if si != sj {
			return si < sj
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}

func suitIndex(s Suit) int {
	for i, v := range Suits {
		if v == s {
			return i
		}
	}
	return len(Suits)
}

// ContainsCard reports whether hand holds a card with the same ID.
func ContainsCard(hand []Card, card Card) bool {
	_, ok := FindCard(hand, card.ID)
	return ok
}

// FindCard returns the held card with the given ID.
func FindCard(hand []Card, id string) (Card, bool) {
	for _, c := range hand {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// RemoveCard returns hand without card. The second result is false when card was not held.
func RemoveCard(hand []Card, card Card) ([]Card, bool) {
	out := make([]Card, 0, len(hand))
	found := false
	for _, c := range hand {
		if !found && c.ID == card.ID {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		return hand, false
	}
	return out, true
}

// WithoutCards returns deck minus every card whose ID appears in removed, preserving order.
func WithoutCards(deck []Card, removed []Card) []Card {
	skip := make(map[string]bool, len(removed))
	for _, c := range removed {
		skip[c.ID] = true
	}
	out := make([]Card, 0, len(deck))
	for _, c := range deck {
		if !skip[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
