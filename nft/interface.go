package nft

type PropertyStore interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)
}

// Store is the journal backing a Registry. WriteTransaction must be atomic
// and must reject a sequence that was already written.
type Store interface {
	PropertyStore

	WriteTransaction(tx *Transaction) error
	ListTransactions(offset uint64, limit int) ([]*Transaction, error)
}
