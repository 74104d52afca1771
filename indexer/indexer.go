// Package indexer drains the registry journal to workers, e.g. the gallery
// and dashboard projections.
package indexer

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/MixinNetwork/mixin/logger"
)

const checkpointKeyPrefix = "INDEXER:CHECKPOINT:"

type Indexer struct {
	name     string
	store    Store
	workers  []Worker
	batch    int
	interval time.Duration
}

// New builds an indexer, name keys its checkpoint so that several indexers
// may follow the same journal.
func New(name string, store Store, batch int, interval time.Duration) (*Indexer, error) {
	if batch < 1 {
		return nil, fmt.Errorf("invalid indexer batch %d", batch)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid indexer interval %s", interval)
	}
	return &Indexer{
		name:     name,
		store:    store,
		batch:    batch,
		interval: interval,
	}, nil
}

func (idx *Indexer) AddWorker(wkr Worker) {
	idx.workers = append(idx.workers, wkr)
}

func (idx *Indexer) Run(ctx context.Context) {
	for {
		_, err := idx.Drain(ctx)
		if err != nil {
			logger.Printf("Indexer.Drain(%s) => %v\n", idx.name, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(idx.interval):
		}
	}
}

// Drain hands out all transactions after the checkpoint and returns the
// new checkpoint.
func (idx *Indexer) Drain(ctx context.Context) (uint64, error) {
	checkpoint, err := idx.ReadCheckpoint()
	if err != nil {
		return 0, err
	}
	for {
		txs, err := idx.store.ListTransactions(checkpoint, idx.batch)
		if err != nil {
			return checkpoint, err
		}
		for _, tx := range txs {
			if err := ctx.Err(); err != nil {
				return checkpoint, err
			}
			err = idx.process(ctx, tx)
			if err != nil {
				return checkpoint, err
			}
			checkpoint = tx.Sequence
			err = idx.writeCheckpoint(checkpoint)
			if err != nil {
				return checkpoint, err
			}
		}
		if len(txs) < idx.batch {
			return checkpoint, nil
		}
	}
}

func (idx *Indexer) ReadCheckpoint() (uint64, error) {
	val, err := idx.store.ReadProperty(idx.checkpointKey())
	if err != nil || len(val) == 0 {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("malformed checkpoint %x", val)
	}
	return binary.BigEndian.Uint64(val), nil
}

func (idx *Indexer) process(ctx context.Context, tx *nft.Transaction) error {
	for _, evt := range tx.Events {
		for _, wkr := range idx.workers {
			err := wkr.ProcessEvent(ctx, tx, evt)
			if err != nil {
				return fmt.Errorf("transaction %d event %s: %w", tx.Sequence, evt.Kind, err)
			}
		}
	}
	return nil
}

func (idx *Indexer) writeCheckpoint(ckpt uint64) error {
	val := binary.BigEndian.AppendUint64(nil, ckpt)
	return idx.store.WriteProperty(idx.checkpointKey(), val)
}

func (idx *Indexer) checkpointKey() []byte {
	return []byte(checkpointKeyPrefix + idx.name)
}
