package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStore struct {
	sync.Mutex
	properties map[string][]byte
	txs        []*nft.Transaction
}

func (ts *testStore) WriteProperty(key, val []byte) error {
	ts.Lock()
	defer ts.Unlock()
	ts.properties[string(key)] = val
	return nil
}

func (ts *testStore) ReadProperty(key []byte) ([]byte, error) {
	ts.Lock()
	defer ts.Unlock()
	return ts.properties[string(key)], nil
}

func (ts *testStore) ListTransactions(offset uint64, limit int) ([]*nft.Transaction, error) {
	ts.Lock()
	defer ts.Unlock()
	var txs []*nft.Transaction
	for _, tx := range ts.txs {
		if tx.Sequence > offset {
			txs = append(txs, tx)
		}
		if len(txs) == limit {
			break
		}
	}
	return txs, nil
}

func (ts *testStore) append(n int) {
	ts.Lock()
	defer ts.Unlock()
	for i := 0; i < n; i++ {
		seq := uint64(len(ts.txs) + 1)
		ts.txs = append(ts.txs, &nft.Transaction{
			Sequence: seq,
			Events: []*nft.Event{
				{Kind: nft.EventTransfer, TokenId: seq},
				{Kind: nft.EventMint, TokenId: seq},
			},
		})
	}
}

type recordWorker struct {
	seen   []uint64
	failAt uint64
}

func (rw *recordWorker) ProcessEvent(ctx context.Context, tx *nft.Transaction, evt *nft.Event) error {
	if tx.Sequence == rw.failAt {
		return errors.New("worker unavailable")
	}
	if evt.Kind == nft.EventMint {
		rw.seen = append(rw.seen, evt.TokenId)
	}
	return nil
}

func newTestStore() *testStore {
	return &testStore{properties: make(map[string][]byte)}
}

func TestNew(t *testing.T) {
	_, err := New("test", newTestStore(), 0, time.Second)
	assert.Error(t, err)
	_, err = New("test", newTestStore(), 10, 0)
	assert.Error(t, err)
}

func TestDrain(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	store.append(7)

	idx, err := New("gallery", store, 3, time.Millisecond)
	require.NoError(t, err)
	wkr := &recordWorker{failAt: 5}
	idx.AddWorker(wkr)

	ckpt, err := idx.Drain(ctx)
	assert.Error(t, err)
	assert.Equal(t, uint64(4), ckpt)
	assert.Equal(t, []uint64{1, 2, 3, 4}, wkr.seen)

	wkr.failAt = 0
	ckpt, err = idx.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ckpt)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7}, wkr.seen)

	stored, err := idx.ReadCheckpoint()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), stored)

	other, err := New("dashboard", store, 3, time.Millisecond)
	require.NoError(t, err)
	stored, err = other.ReadCheckpoint()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stored)

	store.append(2)
	ckpt, err = idx.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), ckpt)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}, wkr.seen)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newTestStore()
	store.append(3)
	idx, err := New("gallery", store, 100, time.Millisecond)
	require.NoError(t, err)
	wkr := &recordWorker{}
	idx.AddWorker(wkr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		idx.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		ckpt, _ := idx.ReadCheckpoint()
		return ckpt == 3
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("indexer did not stop")
	}
	assert.Equal(t, []uint64{1, 2, 3}, wkr.seen)
}
