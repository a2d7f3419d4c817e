package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is row visibility, independent of the business outcome.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusDeleted  Status = "DELETED"
)

// TransactionStatus is the business outcome. Transitions are monotonic:
// DRAFT -> PENDING | CANCELED, PENDING -> CONFIRMED | FAILED. Terminal
// states never revert.
type TransactionStatus string

const (
	TransactionStatusDraft     TransactionStatus = "DRAFT"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCanceled  TransactionStatus = "CANCELED"
)

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusDraft:   {TransactionStatusPending, TransactionStatusCanceled},
	TransactionStatusPending: {TransactionStatusConfirmed, TransactionStatusFailed},
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PredecessorsOf lists the states allowed to move into next. Guarded
// UPDATEs filter on these so a replayed write against an already-terminal
// row matches zero rows instead of reverting it.
func PredecessorsOf(next TransactionStatus) []TransactionStatus {
	var from []TransactionStatus
	for state, allowed := range allowedTransitions {
		for _, candidate := range allowed {
			if candidate == next {
				from = append(from, state)
			}
		}
	}
	return from
}

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusConfirmed, TransactionStatusFailed, TransactionStatusCanceled:
		return true
	}
	return false
}

// TradeLeg describes the swap half of a refill call.
type TradeLeg struct {
	AssetIn   string          `json:"asset_in"`
	AssetOut  string          `json:"asset_out"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`
	Skipped   bool            `json:"skipped"`
}

// TransferLeg describes the cross-chain transfer half.
type TransferLeg struct {
	Asset       string          `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
	DestChain   string          `json:"dest_chain"`
	DestAddress string          `json:"dest_address"`
}

type Transaction struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	TransactionUUID string `json:"transaction_uuid" gorm:"column:transaction_uuid;type:varchar(64);not null;uniqueIndex"`

	Chain           string `json:"chain" gorm:"type:varchar(32);not null"`
	ChainType       string `json:"chain_type" gorm:"type:varchar(16);not null"`
	TransactionType string `json:"transaction_type" gorm:"type:varchar(32);not null"`
	RefTable        string `json:"ref_table" gorm:"type:varchar(64)"`
	RefID           uint   `json:"ref_id"`

	RawTransaction  string       `json:"raw_transaction" gorm:"type:text"`
	TransactionHash string       `json:"transaction_hash" gorm:"type:varchar(66);index"`
	Trade           *TradeLeg    `json:"trade" gorm:"serializer:json"`
	Transfer        *TransferLeg `json:"transfer" gorm:"serializer:json"`

	Signers          []string `json:"signers" gorm:"serializer:json"`
	Threshold        uint16   `json:"threshold"`
	Payer            string   `json:"payer" gorm:"type:varchar(64);index"`
	MultisigWalletID uint     `json:"multisig_wallet_id"`
	SignerWalletID   uint     `json:"signer_wallet_id"`

	Status            Status            `json:"status" gorm:"type:varchar(16);default:'ACTIVE'"`
	TransactionStatus TransactionStatus `json:"transaction_status" gorm:"type:varchar(16);default:'DRAFT';index"`

	// Data carries chain-specific enrichment written at confirmation time
	// (contract address, job id, collection id).
	Data             string            `json:"data" gorm:"type:varchar(255)"`
	WebhookTriggered *time.Time        `json:"webhook_triggered"`
	MultisigBalances map[string]string `json:"multisig_balances" gorm:"serializer:json"`

	CreateTime time.Time `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime time.Time `json:"update_time" gorm:"autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// WebhookPayload is the shape downstream consumers receive. Delivery is
// at-least-once; consumers dedupe on ID.
type WebhookPayload struct {
	ID                uint              `json:"id"`
	TransactionHash   string            `json:"transactionHash"`
	ReferenceTable    string            `json:"referenceTable"`
	ReferenceID       uint              `json:"referenceId"`
	TransactionStatus TransactionStatus `json:"transactionStatus"`
	Data              string            `json:"data"`
}

func (t *Transaction) ToWebhookPayload() WebhookPayload {
	return WebhookPayload{
		ID:                t.ID,
		TransactionHash:   t.TransactionHash,
		ReferenceTable:    t.RefTable,
		ReferenceID:       t.RefID,
		TransactionStatus: t.TransactionStatus,
		Data:              t.Data,
	}
}
