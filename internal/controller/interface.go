package controller

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/store/transaction"
	"github.com/dotflow/refill-backend/internal/submitter"
)

type IController interface {
	// Refill validates the request, sizes the swap-and-transfer call and
	// persists it as a DRAFT awaiting confirmation.
	Refill(ctx context.Context, multisigWalletID, destWalletID uint, amountIn decimal.Decimal) (*model.Transaction, error)

	// Confirm builds the multisig approval extrinsic for a DRAFT row,
	// submits it and moves the row to PENDING.
	Confirm(ctx context.Context, transactionUUID string) (*submitter.SubmitResult, error)

	// Cancel withdraws an open multisig operation and retires the row.
	Cancel(ctx context.Context, transactionUUID string) (*submitter.SubmitResult, error)

	ListTransactions(filter transaction.ListFilter) ([]model.Transaction, int64, error)
}
