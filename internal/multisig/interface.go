package multisig

import (
	"context"

	"github.com/dotflow/refill-backend/internal/model"
)

type ICoordinator interface {
	// PrepareApprovalExtrinsic builds the first-approval (propose) call for
	// the transaction's stored raw call. Fails when an operation for the
	// same call hash already carries approvals: this service only ever
	// acts as the first proposer.
	PrepareApprovalExtrinsic(ctx context.Context, tx *model.Transaction) (string, error)

	// PrepareCancelExtrinsic builds the cancel call for an operation this
	// payer opened earlier. Requires the operation to be open on chain.
	PrepareCancelExtrinsic(ctx context.Context, tx *model.Transaction) (string, error)
}
