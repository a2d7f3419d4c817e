package route

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/internal/model"
)

// ResolveInput describes one requested refill before any chain state has
// been consulted.
type ResolveInput struct {
	DestChain   string
	DestAddress string
	AmountIn    decimal.Decimal
}

// Result is the fully sized refill call. CallData is the SCALE-encoded
// batch in hex; CallHash is blake2b-256 of the call body, which is what the
// multisig pallet tracks, not the final extrinsic hash.
type Result struct {
	Trade    *model.TradeLeg
	Transfer *model.TransferLeg
	CallData string
	CallHash string
}

type IResolver interface {
	// Resolve reads live balances and quotes, then builds the batched
	// swap-and-transfer call. Pure with respect to local state.
	Resolve(ctx context.Context, in ResolveInput) (*Result, error)

	// SourceBalances returns the payer's balances of the given tokens on
	// the source chain.
	SourceBalances(ctx context.Context, payer string, tokens []string) (map[string]decimal.Decimal, error)
}
