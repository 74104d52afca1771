package indexer

import (
	"context"

	"github.com/MixinNetwork/metatales/nft"
)

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	ListTransactions(offset uint64, limit int) ([]*nft.Transaction, error)
}

// Worker receives every event of the journal exactly in commit order. An
// error stops the drain and the same transaction is handed out again later,
// so workers must tolerate replays of a transaction they partially handled.
type Worker interface {
	ProcessEvent(ctx context.Context, tx *nft.Transaction, evt *nft.Event) error
}
