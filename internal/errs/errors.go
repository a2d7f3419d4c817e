package errs

import (
	"errors"
	"fmt"
)

// AppError carries a stable machine-readable code next to the human
// message so callers can branch without string matching.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

var (
	ErrChainNotSupported  = New("CHAIN_NOT_SUPPORTED", "chain is not supported for this operation")
	ErrAssetNotSupported  = New("ASSET_NOT_SUPPORTED", "no asset-id mapping exists for the requested token")
	ErrTokenBalanceTooLow = New("TOKEN_BALANCE_TOO_LOW", "source balance is below the required floor")
	ErrInvalidAmount      = New("INVALID_AMOUNT", "amount is below the minimum for the destination chain")

	ErrTransactionNotFound                 = New("TRANSACTION_NOT_FOUND", "transaction does not exist")
	ErrMultisigTransactionAlreadyConfirmed = New("MULTISIG_TRANSACTION_ALREADY_CONFIRMED", "transaction is no longer in draft")
	ErrMultisigOperationAlreadyOpen        = New("MULTISIG_OPERATION_ALREADY_OPEN", "a multisig operation for this call hash already has approvals")
	ErrMultisigOperationNotOpen            = New("MULTISIG_OPERATION_NOT_OPEN", "no open multisig operation exists for this call hash")
)

// Is reports whether err is, or wraps, the given AppError.
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == target.Code
}
