package indexer

import (
	"context"

	"github.com/dotflow/refill-backend/internal/model"
)

type IIndexer interface {
	// GetBlockHeight is the highest block the indexer has fully ingested.
	// It lags the chain head; ranges beyond it are simply not visible yet.
	GetBlockHeight(ctx context.Context) (uint64, error)

	// GetAllSystemEvents returns resolved extrinsic outcomes for the
	// account in the half-open range (fromBlock, toBlock].
	GetAllSystemEvents(ctx context.Context, account string, fromBlock, toBlock uint64) ([]model.SystemEvent, error)

	// HasEnrichment reports whether this chain family exposes a created-
	// resource stream (collection id, job id, contract address).
	HasEnrichment() bool

	// GetEnrichedCreations resolves created-resource ids for the given
	// extrinsic hashes. Only meaningful when HasEnrichment is true.
	GetEnrichedCreations(ctx context.Context, account string, hashes []string) ([]model.EnrichedCreation, error)
}
