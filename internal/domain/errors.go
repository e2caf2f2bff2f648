package domain

import (
	"errors"
	"fmt"
)

// Error families. Every rejection wraps exactly one of them.
var (
	// ErrIllegalAction marks a recoverable rejection; state is unchanged and
	// the caller may resubmit a legal action.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvariant marks a sequencing error by the caller.
	ErrInvariant = errors.New("invariant violation")
)

var (
	ErrNotYourTurn   = fmt.Errorf("%w: not your turn", ErrIllegalAction)
	ErrWrongPhase    = fmt.Errorf("%w: not allowed in this phase", ErrIllegalAction)
	ErrIllegalBid    = fmt.Errorf("%w: bid not permitted", ErrIllegalAction)
	ErrIllegalCard   = fmt.Errorf("%w: must follow suit if possible", ErrIllegalAction)
	ErrCardNotInHand = fmt.Errorf("%w: card not in hand", ErrIllegalAction)
	ErrBadChoice     = fmt.Errorf("%w: invalid choice", ErrIllegalAction)

	ErrIncompleteTrick = fmt.Errorf("%w: trick resolved before four plays", ErrInvariant)
	ErrNoPlays         = fmt.Errorf("%w: no plays to resolve", ErrInvariant)
	ErrDealNotOver     = fmt.Errorf("%w: deal has not reached a terminal phase", ErrInvariant)
	ErrInvalidConfig   = fmt.Errorf("%w: invalid match config", ErrInvariant)
)

// Reason is a stable discriminator for rejections, suitable for wire payloads.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNotYourTurn   Reason = "not_your_turn"
	ReasonWrongPhase    Reason = "wrong_phase"
	ReasonIllegalBid    Reason = "illegal_bid"
	ReasonIllegalCard   Reason = "illegal_card"
	ReasonCardNotInHand Reason = "card_not_in_hand"
	ReasonBadChoice     Reason = "bad_choice"
	ReasonInvariant     Reason = "invariant_violation"
)

// ReasonOf classifies err. Unknown errors map to ReasonNone.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNotYourTurn):
		return ReasonNotYourTurn
	case errors.Is(err, ErrWrongPhase):
		return ReasonWrongPhase
	case errors.Is(err, ErrIllegalBid):
		return ReasonIllegalBid
	case errors.Is(err, ErrIllegalCard):
		return ReasonIllegalCard
	case errors.Is(err, ErrCardNotInHand):
		return ReasonCardNotInHand
	case errors.Is(err, ErrBadChoice):
		return ReasonBadChoice
	case errors.Is(err, ErrInvariant):
		return ReasonInvariant
	default:
		return ReasonNone
	}
}

// ActionError attaches the acting seat and attempted action to a rejection.
type ActionError struct {
	Seat   Seat
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Seat, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Reason returns the discriminated reason for the rejection.
func (e *ActionError) Reason() Reason {
	return ReasonOf(e.Err)
}
