package model

import "math/big"

// Timepoint locates the block and extrinsic index at which a multisig
// operation was opened. Cancel calls must quote it back to the chain.
type Timepoint struct {
	Height uint32 `json:"height"`
	Index  uint32 `json:"index"`
}

// MultisigOperation is the live on-chain state for one (payer, callHash)
// pair. It is never persisted locally; chain state is the source of truth.
type MultisigOperation struct {
	Payer     string    `json:"payer"`
	CallHash  string    `json:"call_hash"`
	Timepoint Timepoint `json:"timepoint"`
	Deposit   *big.Int  `json:"deposit"`
	Depositor string    `json:"depositor"`
	Approvals []string  `json:"approvals"`
}

// HasApprovals reports whether any co-signer has already signed.
func (op *MultisigOperation) HasApprovals() bool {
	return op != nil && len(op.Approvals) > 0
}
