package store

import (
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *BadgerStore {
	ctx, cancel := context.WithCancel(context.Background())
	bs, err := OpenBadger(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		bs.Close()
	})
	return bs
}

func testTransaction(seq uint64) *nft.Transaction {
	return &nft.Transaction{
		Sequence: seq,
		TraceId:  mixin.UniqueConversationID("store-test", string(rune('a'+seq))),
		Caller:   common.BytesToAddress([]byte{1}),
		Events: []*nft.Event{{
			Kind:    nft.EventTransfer,
			To:      common.BytesToAddress([]byte{2}),
			TokenId: seq,
		}, {
			Kind:      nft.EventMint,
			TokenId:   seq,
			To:        common.BytesToAddress([]byte{2}),
			URI:       "ipfs://bafy",
			Recipient: common.BytesToAddress([]byte{3}),
			Fraction:  250,
			Override:  true,
		}},
		CreatedAt: time.Unix(1700000000, int64(seq)),
	}
}

func TestProperty(t *testing.T) {
	bs := testStore(t)

	val, err := bs.ReadProperty([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, bs.WriteProperty([]byte("key"), []byte("value")))
	val, err = bs.ReadProperty([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)
}

func TestTransactionJournal(t *testing.T) {
	bs := testStore(t)

	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, bs.WriteTransaction(testTransaction(seq)))
	}
	assert.Error(t, bs.WriteTransaction(testTransaction(3)))
	assert.Error(t, bs.WriteTransaction(testTransaction(0)))
	bad := testTransaction(6)
	bad.TraceId = "not-a-uuid"
	assert.Error(t, bs.WriteTransaction(bad))

	txs, err := bs.ListTransactions(0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 5)
	for i, tx := range txs {
		assert.Equal(t, uint64(i+1), tx.Sequence)
	}

	txs, err = bs.ListTransactions(2, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, uint64(3), txs[0].Sequence)
	assert.Equal(t, uint64(4), txs[1].Sequence)

	txs, err = bs.ListTransactions(5, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)

	txs, err = bs.ListTransactions(math.MaxUint64, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)

	want := testTransaction(4)
	got, err := bs.ReadTransaction(4)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.TraceId, got.TraceId)
	assert.Equal(t, want.Caller, got.Caller)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Events, 2)
	assert.Equal(t, *want.Events[0], *got.Events[0])
	assert.Equal(t, *want.Events[1], *got.Events[1])

	got, err = bs.ReadTransactionByTrace(want.TraceId)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(4), got.Sequence)

	got, err = bs.ReadTransaction(9)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = bs.ReadTransactionByTrace(mixin.UniqueConversationID("missing", "trace"))
	require.NoError(t, err)
	assert.Nil(t, got)
	_, err = bs.ReadTransactionByTrace("bad")
	assert.Error(t, err)
}

func TestRegistryOnBadger(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	owner := common.BytesToAddress([]byte{9})
	author := common.BytesToAddress([]byte{1})
	genesis := &nft.Genesis{
		Name:    "Meta-Tales",
		Symbol:  "TALE",
		Owner:   owner,
		Royalty: nft.Royalty{Recipient: owner, Fraction: 250},
	}

	bs, err := OpenBadger(ctx, path)
	require.NoError(t, err)
	r, err := nft.NewRegistry(ctx, bs, genesis)
	require.NoError(t, err)
	id, err := r.Mint(ctx, author, author, "ipfs://story", author, 500)
	require.NoError(t, err)
	_, err = r.MintWithDefaultRoyalty(ctx, author, author, "ipfs://poem")
	require.NoError(t, err)
	require.NoError(t, r.Burn(ctx, author, id))
	require.NoError(t, bs.Close())

	bs, err = OpenBadger(ctx, path)
	require.NoError(t, err)
	defer bs.Close()
	r, err = nft.NewRegistry(ctx, bs, nil)
	require.NoError(t, err)
	assert.Equal(t, "Meta-Tales", r.Name())
	assert.Equal(t, uint64(2), r.TotalMinted())
	assert.Equal(t, 1, r.TotalSupply())

	recipient, amount := r.RoyaltyInfo(id, big.NewInt(10000))
	assert.Equal(t, owner, recipient)
	assert.Equal(t, "0", amount.String())
	recipient, amount = r.RoyaltyInfo(2, big.NewInt(10000))
	assert.Equal(t, owner, recipient)
	assert.Equal(t, "250", amount.String())
	uri, err := r.TokenURI(2)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://poem", uri)
}
