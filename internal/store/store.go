package store

import (
	"github.com/dotflow/refill-backend/internal/store/transaction"
	"github.com/dotflow/refill-backend/internal/store/wallet"
)

type Store struct {
	Transaction transaction.IStore
	Wallet      wallet.IStore
}

func New() *Store {
	return &Store{
		Transaction: transaction.New(),
		Wallet:      wallet.New(),
	}
}
