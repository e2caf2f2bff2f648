package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"grim/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

// WalletKeyPoints is the wallet entry holding a player's cumulative Grim points.
const WalletKeyPoints = "grim_points"

// walletModule is the subset of runtime.NakamaModule the results adapter needs.
type walletModule interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
	WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error)
}

// NakamaResultsAdapter implements ports.ResultsPort using Nakama's wallet system.
type NakamaResultsAdapter struct {
	nk walletModule
}

// NewNakamaResultsAdapter creates a new results adapter.
func NewNakamaResultsAdapter(nk walletModule) *NakamaResultsAdapter {
	return &NakamaResultsAdapter{
		nk: nk,
	}
}

// GetPoints retrieves the cumulative Grim points for a user.
func (a *NakamaResultsAdapter) GetPoints(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account.Wallet == "" {
		return 0, nil
	}

	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.Wallet), &wallet); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return wallet[WalletKeyPoints], nil
}

// RecordResults applies each credit to the player's wallet with a ledger entry.
// Nakama rejects negative balances, so a debit is capped at the current
// balance. Zero changes are skipped.
func (a *NakamaResultsAdapter) RecordResults(ctx context.Context, updates []ports.ResultUpdate) error {
	for _, update := range updates {
		points := update.Points
		if points < 0 {
			balance, err := a.GetPoints(ctx, update.UserID)
			if err != nil {
				return err
			}
			if -points > balance {
				points = -balance
			}
		}
		if points == 0 {
			continue
		}

		changes := map[string]int64{
			WalletKeyPoints: points,
		}

		_, _, err := a.nk.WalletUpdate(ctx, update.UserID, changes, update.Metadata, true)
		if err != nil {
			return fmt.Errorf("failed to update wallet for user %s: %w", update.UserID, err)
		}
	}
	return nil
}

var _ ports.ResultsPort = (*NakamaResultsAdapter)(nil)
