package wallet

import (
	"gorm.io/gorm"

	"github.com/dotflow/refill-backend/internal/model"
)

type IStore interface {
	GetByID(tx *gorm.DB, id uint) (*model.Wallet, error)
	GetByAddress(tx *gorm.DB, address, chain string) (*model.Wallet, error)
	FindByChain(tx *gorm.DB, chain string) ([]model.Wallet, error)
	AdvanceWatermark(tx *gorm.DB, walletID uint, height uint64) error
	SetLastProcessedNonce(tx *gorm.DB, walletID uint, nonce uint32) error
}
