package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"grim/internal/app"
	"grim/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	// RpcVerifyReceipt checks a signed match receipt and returns its claims.
	RpcVerifyReceipt = "verify_receipt"
	// RpcGetPoints returns the caller's cumulative Grim points.
	RpcGetPoints = "get_points"
)

// Nakama RPC error codes (gRPC status values).
const (
	codeInvalidArgument    = 3
	codeFailedPrecondition = 9
	codeUnauthenticated    = 16
	codeInternal           = 13
)

// ReceiptResponse is the verified content of a match receipt.
type ReceiptResponse struct {
	ID       string `json:"id"`
	MatchID  string `json:"match_id"`
	Seed     string `json:"seed"`
	Deals    int    `json:"deals"`
	NS       int    `json:"ns"`
	EW       int    `json:"ew"`
	Standing string `json:"standing"`
	IssuedAt int64  `json:"issued_at"`
}

// rpcVerifyReceipt verifies a receipt token issued when a match settled.
//
// Payload: {"receipt": "<token>"}
func rpcVerifyReceipt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req struct {
		Receipt string `json:"receipt"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Receipt == "" {
		return "", runtime.NewError("payload must carry a receipt", codeInvalidArgument)
	}

	gc := config.GetGameConfig()
	receipt, err := app.NewReceiptService(gc.ReceiptSecret, gc.ReceiptIssuer).Verify(req.Receipt)
	switch {
	case errors.Is(err, app.ErrReceiptConfig):
		logger.Error("RpcVerifyReceipt: receipts are not configured")
		return "", runtime.NewError("receipts are not configured", codeFailedPrecondition)
	case err != nil:
		logger.Warn("RpcVerifyReceipt: rejected receipt: %v", err)
		return "", runtime.NewError("invalid receipt", codeInvalidArgument)
	}

	out, err := json.Marshal(ReceiptResponse{
		ID:       receipt.ID,
		MatchID:  receipt.MatchID,
		Seed:     receipt.Seed,
		Deals:    receipt.Deals,
		NS:       receipt.Scores[0],
		EW:       receipt.Scores[1],
		Standing: string(receipt.Standing),
		IssuedAt: receipt.IssuedAt.Unix(),
	})
	if err != nil {
		return "", runtime.NewError("failed to encode receipt", codeInternal)
	}
	return string(out), nil
}

// rpcGetPoints returns {"points": n} for the calling user.
func rpcGetPoints(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("no user in context", codeUnauthenticated)
	}
	points, err := NewNakamaResultsAdapter(nk).GetPoints(ctx, userID)
	if err != nil {
		logger.Error("RpcGetPoints [User:%s]: %v", userID, err)
		return "", runtime.NewError("failed to read points", codeInternal)
	}
	out, _ := json.Marshal(map[string]int64{"points": points})
	return string(out), nil
}
