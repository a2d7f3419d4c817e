package telemetry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/indexer"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/store"
	"github.com/dotflow/refill-backend/internal/store/transaction"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/types/environments"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

const walletAddress = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"

type mockIndexer struct {
	mock.Mock
	enrichment bool
}

func (m *mockIndexer) GetBlockHeight(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockIndexer) GetAllSystemEvents(ctx context.Context, account string, fromBlock, toBlock uint64) ([]model.SystemEvent, error) {
	args := m.Called(ctx, account, fromBlock, toBlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SystemEvent), args.Error(1)
}

func (m *mockIndexer) HasEnrichment() bool { return m.enrichment }

func (m *mockIndexer) GetEnrichedCreations(ctx context.Context, account string, hashes []string) ([]model.EnrichedCreation, error) {
	args := m.Called(ctx, account, hashes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EnrichedCreation), args.Error(1)
}

type mockWalletStore struct {
	mock.Mock
}

func (m *mockWalletStore) GetByID(tx *gorm.DB, id uint) (*model.Wallet, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *mockWalletStore) GetByAddress(tx *gorm.DB, address, chain string) (*model.Wallet, error) {
	args := m.Called(tx, address, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *mockWalletStore) FindByChain(tx *gorm.DB, chain string) ([]model.Wallet, error) {
	args := m.Called(tx, chain)
	return args.Get(0).([]model.Wallet), args.Error(1)
}

func (m *mockWalletStore) AdvanceWatermark(tx *gorm.DB, walletID uint, height uint64) error {
	return m.Called(tx, walletID, height).Error(0)
}

func (m *mockWalletStore) SetLastProcessedNonce(tx *gorm.DB, walletID uint, nonce uint32) error {
	return m.Called(tx, walletID, nonce).Error(0)
}

type mockTransactionStore struct {
	mock.Mock
}

func (m *mockTransactionStore) Create(tx *gorm.DB, row *model.Transaction) (*model.Transaction, error) {
	args := m.Called(tx, row)
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockTransactionStore) GetByUUID(tx *gorm.DB, transactionUUID string) (*model.Transaction, error) {
	args := m.Called(tx, transactionUUID)
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockTransactionStore) List(tx *gorm.DB, filter transaction.ListFilter) ([]model.Transaction, int64, error) {
	args := m.Called(tx, filter)
	return args.Get(0).([]model.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *mockTransactionStore) UpdateStatusByUUID(tx *gorm.DB, transactionUUID string, status model.Status, transactionStatus model.TransactionStatus) error {
	return m.Called(tx, transactionUUID, status, transactionStatus).Error(0)
}

func (m *mockTransactionStore) BulkUpdateStatusByHashes(tx *gorm.DB, hashes []string, transactionStatus model.TransactionStatus) (int64, error) {
	args := m.Called(tx, hashes, transactionStatus)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTransactionStore) SetDataByHash(tx *gorm.DB, hash, data string, transactionStatus model.TransactionStatus) error {
	return m.Called(tx, hash, data, transactionStatus).Error(0)
}

func (m *mockTransactionStore) FindNewlyTerminalByRef(tx *gorm.DB, refTable string, refID uint) ([]model.Transaction, error) {
	args := m.Called(tx, refTable, refID)
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *mockTransactionStore) MarkWebhookTriggered(tx *gorm.DB, ids []uint) error {
	return m.Called(tx, ids).Error(0)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, payloads []model.WebhookPayload) ([]uint, error) {
	args := m.Called(ctx, payloads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

type mockSubstrateRPC struct {
	mock.Mock
	chain string
}

func (m *mockSubstrateRPC) Chain() string { return m.chain }

func (m *mockSubstrateRPC) AssetBalance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	args := m.Called(ctx, address, token)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockSubstrateRPC) AccountNextIndex(ctx context.Context, address string) (uint32, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *mockSubstrateRPC) RouteQuote(ctx context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, tokenIn, tokenOut, amountIn)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockSubstrateRPC) GetMultisigOperation(ctx context.Context, payer, callHash string) (*model.MultisigOperation, error) {
	args := m.Called(ctx, payer, callHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MultisigOperation), args.Error(1)
}

func (m *mockSubstrateRPC) Close() {}

type fixture struct {
	t          *testing.T
	db         *gorm.DB
	dbMock     sqlmock.Sqlmock
	idx        *mockIndexer
	wallets    *mockWalletStore
	txs        *mockTransactionStore
	dispatcher *mockDispatcher
	rpc        *mockSubstrateRPC
	telemetry  ITelemetry
}

func newFixture(t *testing.T, chain string, enrichment bool) *fixture {
	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	f := &fixture{
		t:          t,
		db:         gormDB,
		dbMock:     dbMock,
		idx:        &mockIndexer{enrichment: enrichment},
		wallets:    new(mockWalletStore),
		txs:        new(mockTransactionStore),
		dispatcher: new(mockDispatcher),
		rpc:        &mockSubstrateRPC{chain: chain},
	}

	pool := subrpc.NewPool()
	pool.Add(f.rpc)

	f.telemetry = New(
		gormDB,
		&store.Store{Transaction: f.txs, Wallet: f.wallets},
		&config.AppConfig{},
		logger.New(environments.Test),
		indexer.NewStaticRegistry(map[string]indexer.IIndexer{chain: f.idx}),
		pool,
		f.dispatcher,
	)
	return f
}

func astarWallet() model.Wallet {
	return model.Wallet{
		ID:              7,
		Address:         walletAddress,
		Chain:           consts.ChainAstar,
		ChainType:       consts.ChainTypeSubstrate,
		LastParsedBlock: 100,
	}
}

func TestProcessChainFamilyConfirmsAndFails(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{wallet}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, walletAddress, uint64(100), uint64(150)).
		Return([]model.SystemEvent{
			{ExtrinsicHash: "0xaaa", Status: model.SystemEventSuccess},
			{ExtrinsicHash: "0xbbb", Status: model.SystemEventFail},
		}, nil)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string{"0xaaa"}, model.TransactionStatusConfirmed).
		Return(int64(1), nil)
	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string{"0xbbb"}, model.TransactionStatusFailed).
		Return(int64(1), nil)
	f.wallets.On("AdvanceWatermark", mock.Anything, uint(7), uint64(150)).Return(nil)

	f.rpc.On("AccountNextIndex", mock.Anything, walletAddress).Return(uint32(0), nil)

	terminal := model.Transaction{ID: 31, TransactionHash: "0xaaa", RefTable: consts.RefTableWallet, RefID: 7, TransactionStatus: model.TransactionStatusConfirmed}
	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(7)).
		Return([]model.Transaction{terminal}, nil)
	f.dispatcher.On("Dispatch", mock.Anything, []model.WebhookPayload{terminal.ToWebhookPayload()}).
		Return([]uint{31}, nil)
	f.txs.On("MarkWebhookTriggered", mock.Anything, []uint{31}).Return(nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainAstar))

	f.txs.AssertExpectations(t)
	f.wallets.AssertExpectations(t)
	f.dispatcher.AssertExpectations(t)
	require.NoError(t, f.dbMock.ExpectationsWereMet())
}

func TestProcessWalletEnrichment(t *testing.T) {
	f := newFixture(t, consts.ChainUnique, true)
	wallet := astarWallet()
	wallet.Chain = consts.ChainUnique

	f.wallets.On("FindByChain", mock.Anything, consts.ChainUnique).Return([]model.Wallet{wallet}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, walletAddress, uint64(100), uint64(150)).
		Return([]model.SystemEvent{
			{ExtrinsicHash: "0xaaa", Status: model.SystemEventSuccess},
			{ExtrinsicHash: "0xccc", Status: model.SystemEventSuccess},
		}, nil)
	f.idx.On("GetEnrichedCreations", mock.Anything, walletAddress, []string{"0xaaa", "0xccc"}).
		Return([]model.EnrichedCreation{{ExtrinsicHash: "0xaaa", Value: "77"}}, nil)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	// the enriched hash is written with its payload; only the other one
	// goes through the generic bulk update
	f.txs.On("SetDataByHash", mock.Anything, "0xaaa", "77", model.TransactionStatusConfirmed).Return(nil)
	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string{"0xccc"}, model.TransactionStatusConfirmed).
		Return(int64(1), nil)
	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string(nil), model.TransactionStatusFailed).
		Return(int64(0), nil)
	f.wallets.On("AdvanceWatermark", mock.Anything, uint(7), uint64(150)).Return(nil)

	f.rpc.On("AccountNextIndex", mock.Anything, walletAddress).Return(uint32(0), nil)
	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(7)).
		Return([]model.Transaction{}, nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainUnique))
	f.txs.AssertExpectations(t)
}

func TestProcessWalletEmptyRangeStillAdvances(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{wallet}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, walletAddress, uint64(100), uint64(150)).
		Return([]model.SystemEvent{}, nil)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string(nil), model.TransactionStatusConfirmed).
		Return(int64(0), nil)
	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string(nil), model.TransactionStatusFailed).
		Return(int64(0), nil)
	f.wallets.On("AdvanceWatermark", mock.Anything, uint(7), uint64(150)).Return(nil)
	f.rpc.On("AccountNextIndex", mock.Anything, walletAddress).Return(uint32(0), nil)
	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(7)).
		Return([]model.Transaction{}, nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainAstar))
	f.wallets.AssertCalled(t, "AdvanceWatermark", mock.Anything, uint(7), uint64(150))
}

func TestProcessWalletNothingNew(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()
	wallet.LastParsedBlock = 150

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{wallet}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainAstar))

	// the indexer already caught up to the watermark; nothing is read or
	// written
	f.idx.AssertNotCalled(t, "GetAllSystemEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.wallets.AssertNotCalled(t, "AdvanceWatermark", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessWalletCanceledContextKeepsWatermark(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{wallet}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, walletAddress, uint64(100), uint64(150)).
		Run(func(mock.Arguments) { cancel() }).
		Return([]model.SystemEvent{{ExtrinsicHash: "0xaaa", Status: model.SystemEventSuccess}}, nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(ctx, consts.ChainAstar))

	// partial results are discarded; the range is retried next tick
	f.wallets.AssertNotCalled(t, "AdvanceWatermark", mock.Anything, mock.Anything, mock.Anything)
	f.txs.AssertNotCalled(t, "BulkUpdateStatusByHashes", mock.Anything, mock.Anything, mock.Anything)
	require.NoError(t, f.dbMock.ExpectationsWereMet())
}

func TestProcessWalletFailureIsolation(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	broken := astarWallet()
	healthy := astarWallet()
	healthy.ID = 8
	healthy.Address = "5FLSigC9HGRKVhB9FiEo4Y3koPsNmBmLJbpXg2mp1hXcS59Y"

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{broken, healthy}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, broken.Address, uint64(100), uint64(150)).
		Return(nil, assert.AnError)
	f.idx.On("GetAllSystemEvents", mock.Anything, healthy.Address, uint64(100), uint64(150)).
		Return([]model.SystemEvent{}, nil)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string(nil), mock.Anything).Return(int64(0), nil)
	f.wallets.On("AdvanceWatermark", mock.Anything, uint(8), uint64(150)).Return(nil)
	f.rpc.On("AccountNextIndex", mock.Anything, healthy.Address).Return(uint32(0), nil)
	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(8)).
		Return([]model.Transaction{}, nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainAstar))

	// the second wallet was still processed
	f.wallets.AssertCalled(t, "AdvanceWatermark", mock.Anything, uint(8), uint64(150))
}

func TestNotifyTerminalPartialDispatchStampsAndSurfacesError(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()

	accepted := model.Transaction{ID: 31, TransactionHash: "0xaaa", RefTable: consts.RefTableWallet, RefID: 7, TransactionStatus: model.TransactionStatusConfirmed}
	rejected := model.Transaction{ID: 32, TransactionHash: "0xbbb", RefTable: consts.RefTableWallet, RefID: 7, TransactionStatus: model.TransactionStatusFailed}

	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(7)).
		Return([]model.Transaction{accepted, rejected}, nil)
	f.dispatcher.On("Dispatch", mock.Anything, []model.WebhookPayload{accepted.ToWebhookPayload(), rejected.ToWebhookPayload()}).
		Return([]uint{31}, assert.AnError)
	f.txs.On("MarkWebhookTriggered", mock.Anything, []uint{31}).Return(nil)

	err := f.telemetry.(*Telemetry).notifyTerminal(context.Background(), &wallet)

	// the accepted row is stamped, and the batch failure still surfaces
	require.ErrorIs(t, err, assert.AnError)
	f.txs.AssertCalled(t, "MarkWebhookTriggered", mock.Anything, []uint{31})
}

func TestRepairNonceRequiresCorroboration(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()
	wallet.LastProcessedNonce = 4

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{wallet}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, walletAddress, uint64(100), uint64(150)).
		Return([]model.SystemEvent{}, nil)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string(nil), mock.Anything).Return(int64(0), nil)
	f.wallets.On("AdvanceWatermark", mock.Anything, uint(7), uint64(150)).Return(nil)
	// chain reports nonce ahead of local bookkeeping, but the indexer saw
	// nothing: the counter must not be advanced blind
	f.rpc.On("AccountNextIndex", mock.Anything, walletAddress).Return(uint32(9), nil)
	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(7)).
		Return([]model.Transaction{}, nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainAstar))
	f.wallets.AssertNotCalled(t, "SetLastProcessedNonce", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepairNonceAdvancesWithCorroboration(t *testing.T) {
	f := newFixture(t, consts.ChainAstar, false)
	wallet := astarWallet()
	wallet.LastProcessedNonce = 4

	f.wallets.On("FindByChain", mock.Anything, consts.ChainAstar).Return([]model.Wallet{wallet}, nil)
	f.idx.On("GetBlockHeight", mock.Anything).Return(uint64(150), nil)
	f.idx.On("GetAllSystemEvents", mock.Anything, walletAddress, uint64(100), uint64(150)).
		Return([]model.SystemEvent{{ExtrinsicHash: "0xaaa", Status: model.SystemEventSuccess}}, nil)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string{"0xaaa"}, model.TransactionStatusConfirmed).Return(int64(1), nil)
	f.txs.On("BulkUpdateStatusByHashes", mock.Anything, []string(nil), model.TransactionStatusFailed).Return(int64(0), nil)
	f.wallets.On("AdvanceWatermark", mock.Anything, uint(7), uint64(150)).Return(nil)
	f.rpc.On("AccountNextIndex", mock.Anything, walletAddress).Return(uint32(9), nil)
	f.wallets.On("SetLastProcessedNonce", mock.Anything, uint(7), uint32(9)).Return(nil)
	f.txs.On("FindNewlyTerminalByRef", mock.Anything, consts.RefTableWallet, uint(7)).
		Return([]model.Transaction{}, nil)

	require.NoError(t, f.telemetry.ProcessChainFamily(context.Background(), consts.ChainAstar))
	f.wallets.AssertCalled(t, "SetLastProcessedNonce", mock.Anything, uint(7), uint32(9))
}
