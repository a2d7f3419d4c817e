package wallet

import (
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) GetByID(tx *gorm.DB, id uint) (*model.Wallet, error) {
	var wallet model.Wallet
	err := tx.First(&wallet, id).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *Store) GetByAddress(tx *gorm.DB, address, chain string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := tx.Where("address = ? AND chain = ?", address, chain).First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *Store) FindByChain(tx *gorm.DB, chain string) ([]model.Wallet, error) {
	var wallets []model.Wallet
	err := tx.Where("chain = ?", chain).Order("id").Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

// AdvanceWatermark only moves last_parsed_block forward; a stale tick can
// never rewind a wallet another tick already advanced.
func (s *Store) AdvanceWatermark(tx *gorm.DB, walletID uint, height uint64) error {
	return tx.Model(&model.Wallet{}).
		Where("id = ? AND last_parsed_block < ?", walletID, height).
		Update("last_parsed_block", height).Error
}

func (s *Store) SetLastProcessedNonce(tx *gorm.DB, walletID uint, nonce uint32) error {
	return tx.Model(&model.Wallet{}).
		Where("id = ? AND last_processed_nonce < ?", walletID, nonce).
		Update("last_processed_nonce", nonce).Error
}
