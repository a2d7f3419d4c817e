package model

// SystemEventStatus is the indexer's verdict on an extrinsic.
type SystemEventStatus string

const (
	SystemEventSuccess SystemEventStatus = "SUCCESS"
	SystemEventFail    SystemEventStatus = "FAIL"
)

// SystemEvent is one resolved extrinsic outcome as reported by a chain
// indexer.
type SystemEvent struct {
	ID              string            `json:"id"`
	BlockHash       string            `json:"blockHash"`
	BlockNumber     uint64            `json:"blockNumber"`
	ExtrinsicHash   string            `json:"extrinsicHash"`
	TransactionType string            `json:"transactionType"`
	CreatedAt       string            `json:"createdAt"`
	Status          SystemEventStatus `json:"status"`
	Account         string            `json:"account"`
	Error           string            `json:"error"`
	Fee             string            `json:"fee"`
}

// EnrichedCreation ties an extrinsic hash to the resource id it created
// on chain families that expose one (collection id, job id, contract
// address).
type EnrichedCreation struct {
	ExtrinsicHash string `json:"extrinsicHash"`
	Value         string `json:"value"`
}
