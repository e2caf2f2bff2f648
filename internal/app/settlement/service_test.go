package settlement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"grim/internal/app"
	"grim/internal/domain"
	"grim/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResultsPort struct {
	recordErr error
	updates   []ports.ResultUpdate
}

func (f *fakeResultsPort) GetPoints(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (f *fakeResultsPort) RecordResults(ctx context.Context, updates []ports.ResultUpdate) error {
	f.updates = append(f.updates, updates...)
	return f.recordErr
}

func finishedMatch() domain.Match {
	return domain.Match{
		Seed:   "settle-seed",
		Config: domain.Config{Deals: 1},
		Stage:  domain.StageMatchOver,
		Scores: domain.TeamScores{16, -32},
	}
}

func isBotID(id string) bool {
	return strings.HasPrefix(id, "bot-")
}

func TestSettleMatch_CreditsHumansOnly(t *testing.T) {
	results := &fakeResultsPort{}
	svc := NewService(results, app.NewReceiptService("secret", "grim"))

	res, err := svc.SettleMatch(context.Background(), "match-1", finishedMatch(), [4]string{"u1", "bot-1", "", "bot-2"}, isBotID)
	require.NoError(t, err)
	require.NoError(t, res.ReceiptErr)
	assert.NotEmpty(t, res.Receipt)

	require.Len(t, results.updates, 1)
	u := results.updates[0]
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, int64(16), u.Points)
	assert.Equal(t, true, u.Metadata["won"])
	assert.Equal(t, "NS", u.Metadata["team"])
}

func TestSettleMatch_ReceiptFailureIsNonFatal(t *testing.T) {
	results := &fakeResultsPort{}
	svc := NewService(results, app.NewReceiptService("", ""))

	res, err := svc.SettleMatch(context.Background(), "match-2", finishedMatch(), [4]string{"u1", "u2", "u3", "u4"}, isBotID)
	require.NoError(t, err)
	assert.ErrorIs(t, res.ReceiptErr, app.ErrReceiptConfig)
	assert.Empty(t, res.Receipt)
	require.Len(t, results.updates, 4)
	assert.Equal(t, int64(-32), results.updates[1].Points)
	assert.Equal(t, false, results.updates[1].Metadata["won"])
}

func TestSettleMatch_RecordError(t *testing.T) {
	results := &fakeResultsPort{recordErr: errors.New("wallet down")}
	svc := NewService(results, nil)

	_, err := svc.SettleMatch(context.Background(), "match-3", finishedMatch(), [4]string{"u1"}, nil)
	assert.Error(t, err)
}

func TestSettleMatch_RequiresFinishedMatch(t *testing.T) {
	svc := NewService(&fakeResultsPort{}, nil)
	m := finishedMatch()
	m.Stage = domain.StageDealOver

	_, err := svc.SettleMatch(context.Background(), "match-4", m, [4]string{"u1"}, nil)
	assert.ErrorIs(t, err, app.ErrMatchNotOver)
}
