package settlement

import (
	"context"
	"fmt"

	"grim/internal/app"
	"grim/internal/domain"
	"grim/internal/ports"
)

// Result captures non-fatal settlement outcomes.
type Result struct {
	// Receipt is the signed match receipt; empty when ReceiptErr is set.
	Receipt string
	// ReceiptErr is set when signing failed but results were still recorded.
	ReceiptErr error
	// Updates are the credits sent to the results port.
	Updates []ports.ResultUpdate
}

// Service settles finished matches: every human seat is credited with its
// team's final score and a receipt is issued.
type Service struct {
	results  ports.ResultsPort
	receipts *app.ReceiptService
}

// NewService constructs a settlement service. results must be non-nil;
// receipts may be nil to skip receipt signing.
func NewService(results ports.ResultsPort, receipts *app.ReceiptService) *Service {
	return &Service{
		results:  results,
		receipts: receipts,
	}
}

// SettleMatch records the final scores of m for the occupants of seats.
// isBot filters out bot occupants and empty seats are skipped.
// Returns a Result with any non-fatal issues and an error if recording fails.
func (s *Service) SettleMatch(ctx context.Context, matchID string, m domain.Match, seats [4]string, isBot func(string) bool) (Result, error) {
	if s.results == nil {
		return Result{}, fmt.Errorf("settlement service not configured")
	}
	if !m.Over() {
		return Result{}, app.ErrMatchNotOver
	}

	result := Result{}
	if s.receipts != nil {
		receipt, err := s.receipts.Issue(matchID, m)
		if err != nil {
			result.ReceiptErr = err
		} else {
			result.Receipt = receipt
		}
	}

	standing := m.Standing()
	for _, seat := range domain.Seats {
		userID := seats[seat]
		if userID == "" || (isBot != nil && isBot(userID)) {
			continue
		}
		team := seat.Team()
		result.Updates = append(result.Updates, ports.ResultUpdate{
			UserID: userID,
			Points: int64(m.Scores[team]),
			Metadata: map[string]interface{}{
				"match_id": matchID,
				"reason":   "match_result",
				"seat":     seat.String(),
				"team":     team.String(),
				"won":      string(standing) == team.String(),
				"seed":     m.Seed,
			},
		})
	}

	if err := s.results.RecordResults(ctx, result.Updates); err != nil {
		return result, fmt.Errorf("failed to record match results: %w", err)
	}
	return result, nil
}
