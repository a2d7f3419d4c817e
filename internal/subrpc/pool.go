package subrpc

import (
	"github.com/pkg/errors"

	"github.com/dotflow/refill-backend/internal/errs"
)

// Pool holds one RPC handle per chain endpoint. Built once at boot and
// injected wherever a chain connection is needed, so no component reaches
// for a shared singleton.
type Pool struct {
	handles map[string]ISubstrateRPC
}

func NewPool() *Pool {
	return &Pool{handles: map[string]ISubstrateRPC{}}
}

func (p *Pool) Add(handle ISubstrateRPC) {
	p.handles[handle.Chain()] = handle
}

func (p *Pool) Get(chain string) (ISubstrateRPC, error) {
	handle, ok := p.handles[chain]
	if !ok {
		return nil, errors.Wrapf(errs.ErrChainNotSupported, "no rpc endpoint configured for %s", chain)
	}
	return handle, nil
}

func (p *Pool) Close() {
	for _, handle := range p.handles {
		handle.Close()
	}
}
