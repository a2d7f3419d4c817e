package transaction

import (
	"time"

	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Create(tx *gorm.DB, transaction *model.Transaction) (*model.Transaction, error) {
	return transaction, tx.Create(transaction).Error
}

func (s *Store) GetByUUID(tx *gorm.DB, transactionUUID string) (*model.Transaction, error) {
	var transaction model.Transaction
	err := tx.Where("transaction_uuid = ?", transactionUUID).First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (s *Store) List(tx *gorm.DB, filter ListFilter) ([]model.Transaction, int64, error) {
	query := tx.Model(&model.Transaction{})
	if filter.Chain != "" {
		query = query.Where("chain = ?", filter.Chain)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TransactionStatus != "" {
		query = query.Where("transaction_status = ?", filter.TransactionStatus)
	}
	if filter.RefTable != "" {
		query = query.Where("ref_table = ?", filter.RefTable)
	}
	if filter.RefID != 0 {
		query = query.Where("ref_id = ?", filter.RefID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var transactions []model.Transaction
	err := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// UpdateStatusByUUID performs a guarded transition: the WHERE clause only
// matches rows whose current transaction_status may legally move to the
// target, so replays against terminal rows are no-ops.
func (s *Store) UpdateStatusByUUID(tx *gorm.DB, transactionUUID string, status model.Status, transactionStatus model.TransactionStatus) error {
	return tx.Model(&model.Transaction{}).
		Where("transaction_uuid = ? AND transaction_status IN ?", transactionUUID, model.PredecessorsOf(transactionStatus)).
		Updates(map[string]interface{}{
			"status":             status,
			"transaction_status": transactionStatus,
		}).Error
}

func (s *Store) BulkUpdateStatusByHashes(tx *gorm.DB, hashes []string, transactionStatus model.TransactionStatus) (int64, error) {
	if len(hashes) == 0 {
		return 0, nil
	}
	result := tx.Model(&model.Transaction{}).
		Where("transaction_hash IN ? AND transaction_status IN ?", hashes, model.PredecessorsOf(transactionStatus)).
		Update("transaction_status", transactionStatus)
	return result.RowsAffected, result.Error
}

func (s *Store) SetDataByHash(tx *gorm.DB, hash, data string, transactionStatus model.TransactionStatus) error {
	return tx.Model(&model.Transaction{}).
		Where("transaction_hash = ? AND transaction_status IN ?", hash, model.PredecessorsOf(transactionStatus)).
		Updates(map[string]interface{}{
			"transaction_status": transactionStatus,
			"data":               data,
		}).Error
}

func (s *Store) FindNewlyTerminalByRef(tx *gorm.DB, refTable string, refID uint) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := tx.
		Where("ref_table = ? AND ref_id = ?", refTable, refID).
		Where("transaction_status IN ?", []model.TransactionStatus{model.TransactionStatusConfirmed, model.TransactionStatusFailed}).
		Where("webhook_triggered IS NULL").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (s *Store) MarkWebhookTriggered(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.Transaction{}).
		Where("id IN ? AND webhook_triggered IS NULL", ids).
		Update("webhook_triggered", time.Now()).Error
}
