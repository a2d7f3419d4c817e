package subrpc

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/internal/model"
)

type ISubstrateRPC interface {
	// Chain this handle is connected to.
	Chain() string

	// AssetBalance returns the free balance of the token for the account,
	// already shifted to whole units.
	AssetBalance(ctx context.Context, address, token string) (decimal.Decimal, error)

	// AccountNextIndex is the chain's view of the account nonce.
	AccountNextIndex(ctx context.Context, address string) (uint32, error)

	// RouteQuote prices a sell of amountIn tokenIn into tokenOut on the
	// omnipool router, before any slippage adjustment.
	RouteQuote(ctx context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal) (decimal.Decimal, error)

	// GetMultisigOperation reads Multisig.Multisigs(payer, callHash).
	// Returns nil when no operation is open.
	GetMultisigOperation(ctx context.Context, payer, callHashHex string) (*model.MultisigOperation, error)

	Close()
}
