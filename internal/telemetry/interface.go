package telemetry

import "context"

type ITelemetry interface {
	// ProcessChainFamily runs one confirmation pass over every wallet on
	// the given chain. Wallet failures are isolated: one bad wallet never
	// blocks the rest of the family.
	ProcessChainFamily(ctx context.Context, chain string) error
}
