package controller

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/errs"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/multisig"
	"github.com/dotflow/refill-backend/internal/route"
	"github.com/dotflow/refill-backend/internal/store"
	"github.com/dotflow/refill-backend/internal/store/transaction"
	"github.com/dotflow/refill-backend/internal/submitter"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

type Controller struct {
	db          *gorm.DB
	store       *store.Store
	resolver    route.IResolver
	coordinator multisig.ICoordinator
	submitter   submitter.ISubmitter
	appConfig   *config.AppConfig
	logger      *logger.Logger
}

func New(
	db *gorm.DB,
	store *store.Store,
	resolver route.IResolver,
	coordinator multisig.ICoordinator,
	submitter submitter.ISubmitter,
	appConfig *config.AppConfig,
	logger *logger.Logger,
) IController {
	return &Controller{
		db:          db,
		store:       store,
		resolver:    resolver,
		coordinator: coordinator,
		submitter:   submitter,
		appConfig:   appConfig,
		logger:      logger,
	}
}

func (c *Controller) Refill(ctx context.Context, multisigWalletID, destWalletID uint, amountIn decimal.Decimal) (*model.Transaction, error) {
	payerWallet, err := c.store.Wallet.GetByID(c.db, multisigWalletID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load multisig wallet")
	}
	if payerWallet.ChainType != consts.ChainTypeSubstrate || payerWallet.Chain != consts.ChainHydration {
		return nil, errors.Wrapf(errs.ErrChainNotSupported, "multisig wallet must live on %s", consts.ChainHydration)
	}

	destWallet, err := c.store.Wallet.GetByID(c.db, destWalletID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load destination wallet")
	}

	// Cheap validation first: no chain endpoint is consulted until the
	// amount is known to be acceptable for the destination.
	if destWallet.Chain == consts.ChainEthereum && amountIn.LessThan(decimal.NewFromInt(consts.MinAmountInEthereum)) {
		return nil, errors.Wrapf(errs.ErrInvalidAmount, "transfers to ethereum require at least %d units", consts.MinAmountInEthereum)
	}

	balances, err := c.resolver.SourceBalances(ctx, payerWallet.Address, []string{"DOT", "HDX"})
	if err != nil {
		c.logger.Error("[Refill][SourceBalances]", map[string]string{
			"payer": payerWallet.Address,
			"error": err.Error(),
		})
		return nil, err
	}
	if err := checkBalanceFloors(balances, destWallet.Chain); err != nil {
		return nil, err
	}

	result, err := c.resolver.Resolve(ctx, route.ResolveInput{
		DestChain:   destWallet.Chain,
		DestAddress: destWallet.Address,
		AmountIn:    amountIn,
	})
	if err != nil {
		c.logger.Error("[Refill][Resolve]", map[string]string{
			"destChain": destWallet.Chain,
			"error":     err.Error(),
		})
		return nil, err
	}

	signerWallet, err := c.store.Wallet.GetByAddress(c.db, c.appConfig.Blockchain.SignerAddress, consts.ChainHydration)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve signer wallet")
	}

	snapshot := make(map[string]string, len(balances))
	for token, balance := range balances {
		snapshot[token] = balance.String()
	}

	draft := &model.Transaction{
		TransactionUUID:   uuid.New().String(),
		Chain:             payerWallet.Chain,
		ChainType:         payerWallet.ChainType,
		TransactionType:   consts.TransactionTypeSwapAndTransfer,
		RefTable:          consts.RefTableWallet,
		RefID:             destWalletID,
		RawTransaction:    result.CallData,
		TransactionHash:   result.CallHash,
		Trade:             result.Trade,
		Transfer:          result.Transfer,
		Signers:           c.appConfig.Blockchain.CoSigners,
		Threshold:         uint16(c.appConfig.Blockchain.MultisigThreshold),
		Payer:             payerWallet.Address,
		MultisigWalletID:  multisigWalletID,
		SignerWalletID:    signerWallet.ID,
		Status:            model.StatusActive,
		TransactionStatus: model.TransactionStatusDraft,
		MultisigBalances:  snapshot,
	}

	created, err := c.store.Transaction.Create(c.db, draft)
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist draft transaction")
	}

	c.logger.Info("[Refill] draft created", map[string]string{
		"uuid":      created.TransactionUUID,
		"destChain": destWallet.Chain,
		"amountIn":  amountIn.String(),
	})
	return created, nil
}

func (c *Controller) Confirm(ctx context.Context, transactionUUID string) (*submitter.SubmitResult, error) {
	row, err := c.draftByUUID(transactionUUID)
	if err != nil {
		return nil, err
	}

	extrinsic, err := c.coordinator.PrepareApprovalExtrinsic(ctx, row)
	if err != nil {
		c.logger.Error("[Confirm][PrepareApprovalExtrinsic]", map[string]string{
			"uuid":  transactionUUID,
			"error": err.Error(),
		})
		return nil, err
	}

	result, err := c.submit(ctx, row, extrinsic)
	if err != nil {
		return nil, err
	}

	if err := c.store.Transaction.UpdateStatusByUUID(c.db, transactionUUID, model.StatusActive, model.TransactionStatusPending); err != nil {
		return nil, errors.Wrap(err, "failed to mark transaction pending")
	}
	return result, nil
}

func (c *Controller) Cancel(ctx context.Context, transactionUUID string) (*submitter.SubmitResult, error) {
	row, err := c.draftByUUID(transactionUUID)
	if err != nil {
		return nil, err
	}

	extrinsic, err := c.coordinator.PrepareCancelExtrinsic(ctx, row)
	if err != nil {
		c.logger.Error("[Cancel][PrepareCancelExtrinsic]", map[string]string{
			"uuid":  transactionUUID,
			"error": err.Error(),
		})
		return nil, err
	}

	result, err := c.submit(ctx, row, extrinsic)
	if err != nil {
		return nil, err
	}

	if err := c.store.Transaction.UpdateStatusByUUID(c.db, transactionUUID, model.StatusInactive, model.TransactionStatusCanceled); err != nil {
		return nil, errors.Wrap(err, "failed to mark transaction canceled")
	}
	return result, nil
}

func (c *Controller) ListTransactions(filter transaction.ListFilter) ([]model.Transaction, int64, error) {
	return c.store.Transaction.List(c.db, filter)
}

func (c *Controller) draftByUUID(transactionUUID string) (*model.Transaction, error) {
	row, err := c.store.Transaction.GetByUUID(c.db, transactionUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errs.ErrTransactionNotFound, "uuid %s", transactionUUID)
		}
		return nil, errors.Wrap(err, "failed to load transaction")
	}
	if row.TransactionStatus != model.TransactionStatusDraft {
		return nil, errors.Wrapf(errs.ErrMultisigTransactionAlreadyConfirmed, "transaction is %s", row.TransactionStatus)
	}
	return row, nil
}

func (c *Controller) submit(ctx context.Context, row *model.Transaction, extrinsic string) (*submitter.SubmitResult, error) {
	// Rows persisted before a signer wallet existed carry no id; those fall
	// back to the configured signer address.
	fromAddress := c.appConfig.Blockchain.SignerAddress
	if row.SignerWalletID != 0 {
		signerWallet, err := c.store.Wallet.GetByID(c.db, row.SignerWalletID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load signer wallet")
		}
		fromAddress = signerWallet.Address
	}

	result, err := c.submitter.Submit(ctx, submitter.SubmitRequest{
		Chain:          row.Chain,
		FromAddress:    fromAddress,
		ReferenceTable: row.RefTable,
		ReferenceID:    row.RefID,
		RawTransaction: extrinsic,
	})
	if err != nil {
		c.logger.Error("[Confirm][Submit]", map[string]string{
			"uuid":  row.TransactionUUID,
			"error": err.Error(),
		})
		return nil, err
	}
	return result, nil
}

// checkBalanceFloors enforces the minimum source balances a refill may draw
// from. DOT also pays the bridge fee, so its floor is raised for Ethereum
// destinations.
func checkBalanceFloors(balances map[string]decimal.Decimal, destChain string) error {
	dotFloor := decimal.NewFromInt(consts.MinBalanceDOT)
	if destChain == consts.ChainEthereum {
		dotFloor = decimal.NewFromInt(consts.MinBalanceDOTEthereum)
	}
	if balances["DOT"].LessThan(dotFloor) {
		return errors.Wrapf(errs.ErrTokenBalanceTooLow, "DOT balance %s below floor %s", balances["DOT"], dotFloor)
	}
	if balances["HDX"].LessThan(decimal.NewFromInt(consts.MinBalanceHDX)) {
		return errors.Wrapf(errs.ErrTokenBalanceTooLow, "HDX balance %s below floor %d", balances["HDX"], consts.MinBalanceHDX)
	}
	return nil
}
