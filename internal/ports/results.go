package ports

import "context"

// ResultUpdate credits one player with their team's final match score.
type ResultUpdate struct {
	UserID   string
	Points   int64
	Metadata map[string]interface{}
}

// ResultsPort records finished-match results outside the engine.
type ResultsPort interface {
	// GetPoints retrieves the cumulative Grim points for a user.
	GetPoints(ctx context.Context, userID string) (int64, error)

	// RecordResults applies the per-player credits of one finished match.
	RecordResults(ctx context.Context, updates []ResultUpdate) error
}
