package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/gofrs/uuid"
)

const (
	prefixTransactionPayload = "TRANSACTION:PAYLOAD:"
	prefixTransactionTrace   = "TRANSACTION:TRACE:"
)

func (bs *BadgerStore) WriteTransaction(tx *nft.Transaction) error {
	if tx.Sequence == 0 {
		return fmt.Errorf("invalid transaction sequence %d", tx.Sequence)
	}
	if _, err := uuid.FromString(tx.TraceId); err != nil {
		return fmt.Errorf("invalid transaction trace %s", tx.TraceId)
	}
	return bs.db.Update(func(txn *badger.Txn) error {
		key := buildTransactionKey(tx.Sequence)
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("transaction %d already exists", tx.Sequence)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		val := common.MsgpackMarshalPanic(tx)
		err = txn.Set(key, val)
		if err != nil {
			return err
		}
		key = []byte(prefixTransactionTrace + tx.TraceId)
		return txn.Set(key, seqToBytes(tx.Sequence))
	})
}

func (bs *BadgerStore) ReadTransaction(seq uint64) (*nft.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readTransaction(txn, seq)
}

func (bs *BadgerStore) ReadTransactionByTrace(traceId string) (*nft.Transaction, error) {
	id, err := uuid.FromString(traceId)
	if err != nil {
		return nil, err
	}

	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get([]byte(prefixTransactionTrace + id.String()))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return bs.readTransaction(txn, binary.BigEndian.Uint64(val))
}

// ListTransactions returns up to limit transactions with a sequence greater
// than offset, in order. A limit of 0 lists them all.
func (bs *BadgerStore) ListTransactions(offset uint64, limit int) ([]*nft.Transaction, error) {
	if offset == math.MaxUint64 {
		return nil, nil
	}

	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixTransactionPayload)
	it := txn.NewIterator(opts)
	defer it.Close()

	var txs []*nft.Transaction
	for it.Seek(buildTransactionKey(offset + 1)); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var tx nft.Transaction
		err = common.MsgpackUnmarshal(val, &tx)
		if err != nil {
			return nil, err
		}
		txs = append(txs, &tx)
		if len(txs) == limit {
			break
		}
	}
	return txs, nil
}

func (bs *BadgerStore) readTransaction(txn *badger.Txn, seq uint64) (*nft.Transaction, error) {
	item, err := txn.Get(buildTransactionKey(seq))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var tx nft.Transaction
	err = common.MsgpackUnmarshal(val, &tx)
	return &tx, err
}

func buildTransactionKey(seq uint64) []byte {
	return append([]byte(prefixTransactionPayload), seqToBytes(seq)...)
}
