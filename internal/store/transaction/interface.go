package transaction

import (
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/model"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Chain             string
	Status            model.Status
	TransactionStatus model.TransactionStatus
	RefTable          string
	RefID             uint
	Page              int
	PageSize          int
}

type IStore interface {
	Create(tx *gorm.DB, transaction *model.Transaction) (*model.Transaction, error)
	GetByUUID(tx *gorm.DB, transactionUUID string) (*model.Transaction, error)
	List(tx *gorm.DB, filter ListFilter) ([]model.Transaction, int64, error)

	UpdateStatusByUUID(tx *gorm.DB, transactionUUID string, status model.Status, transactionStatus model.TransactionStatus) error
	BulkUpdateStatusByHashes(tx *gorm.DB, hashes []string, transactionStatus model.TransactionStatus) (int64, error)
	SetDataByHash(tx *gorm.DB, hash, data string, transactionStatus model.TransactionStatus) error

	FindNewlyTerminalByRef(tx *gorm.DB, refTable string, refID uint) ([]model.Transaction, error)
	MarkWebhookTriggered(tx *gorm.DB, ids []uint) error
}
