package bot

import (
	"fmt"

	"grim/internal/domain"
)

// Agent represents an autonomous bot player bound to a seat.
type Agent struct {
	ID       string
	Name     string
	Seat     domain.Seat
	Level    BotLevel
	Strategy Brain
}

// NewAgent binds a strategy of the given level to seat.
func NewAgent(id, name string, seat domain.Seat, level BotLevel) (*Agent, error) {
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: id, Name: name, Seat: seat, Level: level, Strategy: brain}, nil
}

// Decide asks the agent for its action. It fails when the match is not
// waiting on the agent's seat.
func (a *Agent) Decide(m domain.Match) (domain.Action, error) {
	if !m.AwaitingInput() || m.CurrentPlayer != a.Seat {
		return domain.Action{}, fmt.Errorf("%w: %s is not to act", domain.ErrNotYourTurn, a.Seat)
	}
	return a.Strategy.Decide(m, a.Seat)
}
