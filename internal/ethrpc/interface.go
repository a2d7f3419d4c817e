package ethrpc

import (
	"context"

	"github.com/shopspring/decimal"
)

type IEthRPC interface {
	// Balance returns the destination account's WETH balance in whole
	// units (18 decimals shifted out).
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	Close()
}
