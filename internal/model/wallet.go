package model

import "time"

// Wallet is owned by the sibling blockchain service; this module reads it
// and only ever writes last_parsed_block and last_processed_nonce, both
// owned exclusively by the confirmation worker.
type Wallet struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Address   string `json:"address" gorm:"type:varchar(64);not null;index"`
	Chain     string `json:"chain" gorm:"type:varchar(32);not null;index"`
	ChainType string `json:"chain_type" gorm:"type:varchar(16);not null"`
	Token     string `json:"token" gorm:"type:varchar(16)"`

	LastParsedBlock    uint64 `json:"last_parsed_block"`
	LastProcessedNonce uint32 `json:"last_processed_nonce"`

	CreateTime time.Time `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime time.Time `json:"update_time" gorm:"autoUpdateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}
