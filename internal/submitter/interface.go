package submitter

import "context"

// SubmitRequest is what the chain-submission service expects: the raw call
// plus enough bookkeeping to tie the eventual extrinsic back to our ledger.
type SubmitRequest struct {
	Chain          string `json:"chain"`
	FromAddress    string `json:"fromAddress"`
	ReferenceTable string `json:"referenceTable"`
	ReferenceID    uint   `json:"referenceId"`
	RawTransaction string `json:"rawTransaction"`
}

type SubmitResult struct {
	Accepted      bool   `json:"accepted"`
	ExtrinsicHash string `json:"extrinsicHash"`
}

type ISubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}
