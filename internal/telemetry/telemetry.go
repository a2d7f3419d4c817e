package telemetry

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/indexer"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/store"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
	"github.com/dotflow/refill-backend/internal/webhook"
)

type Telemetry struct {
	db         *gorm.DB
	store      *store.Store
	appConfig  *config.AppConfig
	logger     *logger.Logger
	registry   *indexer.Registry
	pool       *subrpc.Pool
	dispatcher webhook.IDispatcher
}

func New(
	db *gorm.DB,
	store *store.Store,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	registry *indexer.Registry,
	pool *subrpc.Pool,
	dispatcher webhook.IDispatcher,
) ITelemetry {
	return &Telemetry{
		db:         db,
		store:      store,
		appConfig:  appConfig,
		logger:     logger,
		registry:   registry,
		pool:       pool,
		dispatcher: dispatcher,
	}
}

func (t *Telemetry) ProcessChainFamily(ctx context.Context, chain string) error {
	t.logger.Info(fmt.Sprintf("[ProcessChainFamily] Start confirmation pass for %s...", chain))

	idx, err := t.registry.ForChain(chain)
	if err != nil {
		t.logger.Error("[ProcessChainFamily][ForChain]", map[string]string{
			"chain": chain,
			"error": err.Error(),
		})
		return err
	}

	wallets, err := t.store.Wallet.FindByChain(t.db, chain)
	if err != nil {
		t.logger.Error("[ProcessChainFamily][FindByChain]", map[string]string{
			"chain": chain,
			"error": err.Error(),
		})
		return err
	}

	for i := range wallets {
		if err := t.processWallet(ctx, idx, &wallets[i]); err != nil {
			t.logger.Error("[ProcessChainFamily][processWallet]", map[string]string{
				"chain":    chain,
				"walletID": strconv.Itoa(int(wallets[i].ID)),
				"error":    err.Error(),
			})
			// next wallet; the failed range is retried next tick
		}
	}
	return nil
}

func (t *Telemetry) processWallet(ctx context.Context, idx indexer.IIndexer, wallet *model.Wallet) error {
	height, err := idx.GetBlockHeight(ctx)
	if err != nil {
		return err
	}
	if height <= wallet.LastParsedBlock {
		return nil
	}

	events, err := idx.GetAllSystemEvents(ctx, wallet.Address, wallet.LastParsedBlock, height)
	if err != nil {
		return err
	}

	successHashes, failHashes := partitionEvents(events)

	// Enrichment is read before the database transaction opens so a slow
	// indexer never holds row locks.
	var creations []model.EnrichedCreation
	if idx.HasEnrichment() && len(successHashes) > 0 {
		creations, err = idx.GetEnrichedCreations(ctx, wallet.Address, successHashes)
		if err != nil {
			return err
		}
	}

	// A canceled tick must not commit a partial view of the range; the
	// watermark stays put and the whole range is re-read next tick.
	if err := ctx.Err(); err != nil {
		return err
	}

	err = store.DoInTx(t.db, func(tx *gorm.DB) error {
		remaining := successHashes
		for _, creation := range creations {
			if err := t.store.Transaction.SetDataByHash(tx, creation.ExtrinsicHash, creation.Value, model.TransactionStatusConfirmed); err != nil {
				return err
			}
			remaining = removeHash(remaining, creation.ExtrinsicHash)
		}

		if _, err := t.store.Transaction.BulkUpdateStatusByHashes(tx, remaining, model.TransactionStatusConfirmed); err != nil {
			return err
		}
		if _, err := t.store.Transaction.BulkUpdateStatusByHashes(tx, failHashes, model.TransactionStatusFailed); err != nil {
			return err
		}

		// Advances even for an empty range so it is never re-scanned.
		return t.store.Wallet.AdvanceWatermark(tx, wallet.ID, height)
	})
	if err != nil {
		return err
	}

	if len(events) > 0 {
		t.logger.Info(fmt.Sprintf("[processWallet] %d events resolved for wallet %d up to block %d", len(events), wallet.ID, height))
	}

	t.repairNonce(ctx, wallet, len(events) > 0)

	return t.notifyTerminal(ctx, wallet)
}

// notifyTerminal fans newly terminal rows out to the webhook queue and
// stamps the ones the queue accepted.
func (t *Telemetry) notifyTerminal(ctx context.Context, wallet *model.Wallet) error {
	rows, err := t.store.Transaction.FindNewlyTerminalByRef(t.db, consts.RefTableWallet, wallet.ID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	payloads := make([]model.WebhookPayload, 0, len(rows))
	for i := range rows {
		payloads = append(payloads, rows[i].ToWebhookPayload())
	}

	delivered, err := t.dispatcher.Dispatch(ctx, payloads)
	if err != nil {
		t.logger.Error("[notifyTerminal][Dispatch]", map[string]string{
			"walletID": strconv.Itoa(int(wallet.ID)),
			"error":    err.Error(),
		})
	}

	// Accepted batches are stamped even when the rest of the dispatch
	// failed; the undelivered rows stay unstamped and are picked up again
	// next tick. The dispatch error still surfaces to the caller.
	if len(delivered) > 0 {
		if markErr := t.store.Transaction.MarkWebhookTriggered(t.db, delivered); markErr != nil {
			return markErr
		}
	}
	return err
}

// repairNonce reconciles local nonce bookkeeping with the chain. The local
// counter is only advanced when the indexer corroborated activity this
// tick: a counter that merely looks behind may be a corrupted ledger, and
// silently trusting the chain would paper over it.
func (t *Telemetry) repairNonce(ctx context.Context, wallet *model.Wallet, corroborated bool) {
	if wallet.ChainType != consts.ChainTypeSubstrate {
		return
	}
	handle, err := t.pool.Get(wallet.Chain)
	if err != nil {
		return
	}

	chainNonce, err := handle.AccountNextIndex(ctx, wallet.Address)
	if err != nil {
		t.logger.Error("[repairNonce][AccountNextIndex]", map[string]string{
			"walletID": strconv.Itoa(int(wallet.ID)),
			"error":    err.Error(),
		})
		return
	}
	if chainNonce <= wallet.LastProcessedNonce {
		return
	}

	if !corroborated {
		t.logger.Error("[repairNonce] local nonce behind chain without indexer corroboration", map[string]string{
			"walletID":   strconv.Itoa(int(wallet.ID)),
			"localNonce": strconv.Itoa(int(wallet.LastProcessedNonce)),
			"chainNonce": strconv.Itoa(int(chainNonce)),
		})
		return
	}

	if err := t.store.Wallet.SetLastProcessedNonce(t.db, wallet.ID, chainNonce); err != nil {
		t.logger.Error("[repairNonce][SetLastProcessedNonce]", map[string]string{
			"walletID": strconv.Itoa(int(wallet.ID)),
			"error":    err.Error(),
		})
	}
}

func partitionEvents(events []model.SystemEvent) (successHashes, failHashes []string) {
	for _, event := range events {
		switch event.Status {
		case model.SystemEventSuccess:
			successHashes = append(successHashes, event.ExtrinsicHash)
		case model.SystemEventFail:
			failHashes = append(failHashes, event.ExtrinsicHash)
		}
	}
	return successHashes, failHashes
}

func removeHash(hashes []string, hash string) []string {
	out := hashes[:0]
	for _, h := range hashes {
		if h != hash {
			out = append(out, h)
		}
	}
	return out
}
