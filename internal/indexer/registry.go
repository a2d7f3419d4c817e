package indexer

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/errs"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

// enrichments lists the chain families that surface a created-resource id
// in a separate event stream. Everything else only has generic outcomes.
var enrichments = map[string]enrichmentSpec{
	consts.ChainUnique:  {queryName: "collectionCreations", valueField: "collectionId"},
	consts.ChainAcurast: {queryName: "jobRegistrations", valueField: "jobId"},
	consts.ChainPhala:   {queryName: "contractInstantiations", valueField: "contractAddress"},
}

// Registry is the static chain-id -> indexer dispatch table.
type Registry struct {
	clients map[string]IIndexer
}

func NewRegistry(appConfig *config.AppConfig, logger *logger.Logger) *Registry {
	clients := map[string]IIndexer{}
	for chain, baseURL := range appConfig.Indexer.BaseURLs {
		var enrichment *enrichmentSpec
		if spec, ok := enrichments[chain]; ok {
			enrichment = &spec
		}
		clients[chain] = newClient(chain, baseURL, enrichment, logger)
	}
	return &Registry{clients: clients}
}

// NewStaticRegistry wires pre-built clients directly, for callers that
// bring their own IIndexer implementations.
func NewStaticRegistry(clients map[string]IIndexer) *Registry {
	return &Registry{clients: clients}
}

func (r *Registry) ForChain(chain string) (IIndexer, error) {
	indexerClient, ok := r.clients[chain]
	if !ok {
		return nil, errors.Wrapf(errs.ErrChainNotSupported, "no indexer configured for %s", chain)
	}
	return indexerClient, nil
}

// Chains returns the configured chain ids in stable order, one worker job
// is scheduled per entry.
func (r *Registry) Chains() []string {
	chains := make([]string, 0, len(r.clients))
	for chain := range r.clients {
		chains = append(chains, chain)
	}
	sort.Strings(chains)
	return chains
}
