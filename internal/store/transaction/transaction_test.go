package transaction

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/model"
)

func newStoreFixture(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, dbMock
}

func TestUpdateStatusByUUIDGuardsOnPredecessors(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	// moving to PENDING only matches rows still in DRAFT
	dbMock.ExpectExec(`UPDATE "transactions" SET .+ WHERE transaction_uuid = \$\d+ AND transaction_status IN \(\$\d+\)`).
		WithArgs(
			string(model.StatusActive),
			string(model.TransactionStatusPending),
			sqlmock.AnyArg(),
			"uuid-1",
			string(model.TransactionStatusDraft),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateStatusByUUID(db, "uuid-1", model.StatusActive, model.TransactionStatusPending))
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUpdateStatusByUUIDConfirmRequiresPending(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	dbMock.ExpectExec(`UPDATE "transactions" SET .+ WHERE transaction_uuid = \$\d+ AND transaction_status IN \(\$\d+\)`).
		WithArgs(
			string(model.StatusActive),
			string(model.TransactionStatusConfirmed),
			sqlmock.AnyArg(),
			"uuid-1",
			string(model.TransactionStatusPending),
		).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// a replay against a row that already left PENDING matches nothing
	require.NoError(t, s.UpdateStatusByUUID(db, "uuid-1", model.StatusActive, model.TransactionStatusConfirmed))
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestBulkUpdateStatusByHashesGuardsOnPredecessors(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	dbMock.ExpectExec(`UPDATE "transactions" SET .+ WHERE transaction_hash IN \(\$\d+,\$\d+\) AND transaction_status IN \(\$\d+\)`).
		WithArgs(
			string(model.TransactionStatusConfirmed),
			sqlmock.AnyArg(),
			"0xaaa",
			"0xbbb",
			string(model.TransactionStatusPending),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := s.BulkUpdateStatusByHashes(db, []string{"0xaaa", "0xbbb"}, model.TransactionStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestBulkUpdateStatusByHashesEmptyInput(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	affected, err := s.BulkUpdateStatusByHashes(db, nil, model.TransactionStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	// nothing reached the database
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestFindNewlyTerminalByRefSkipsStampedRows(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	rows := sqlmock.NewRows([]string{"id", "transaction_uuid", "transaction_status"}).
		AddRow(31, "uuid-31", string(model.TransactionStatusConfirmed))
	dbMock.ExpectQuery(`SELECT \* FROM "transactions" WHERE \(ref_table = \$\d+ AND ref_id = \$\d+\) AND transaction_status IN \(\$\d+,\$\d+\) AND webhook_triggered IS NULL`).
		WithArgs(
			consts.RefTableWallet,
			int64(7),
			string(model.TransactionStatusConfirmed),
			string(model.TransactionStatusFailed),
		).
		WillReturnRows(rows)

	found, err := s.FindNewlyTerminalByRef(db, consts.RefTableWallet, 7)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, uint(31), found[0].ID)
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestMarkWebhookTriggeredStampsOnce(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	// the IS NULL filter keeps a second pass from restamping delivered rows
	dbMock.ExpectExec(`UPDATE "transactions" SET .+ WHERE id IN \(\$\d+,\$\d+\) AND webhook_triggered IS NULL`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(31), int64(32)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.MarkWebhookTriggered(db, []uint{31, 32}))
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestMarkWebhookTriggeredEmptyInput(t *testing.T) {
	db, dbMock := newStoreFixture(t)
	s := New()

	require.NoError(t, s.MarkWebhookTriggered(db, nil))
	require.NoError(t, dbMock.ExpectationsWereMet())
}
