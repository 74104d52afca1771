package nft

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	store := newMemoryStore()
	future := time.Now().Add(time.Hour)
	val := binary.BigEndian.AppendUint64(nil, uint64(future.UnixNano()))
	require.NoError(t, store.WriteProperty([]byte(clockStorePropertyKey), val))

	clock, err := NewClock(store)
	require.NoError(t, err)
	last := future
	for i := 0; i < 100; i++ {
		now, err := clock.Now()
		require.NoError(t, err)
		assert.True(t, now.After(last))
		last = now
	}

	again, err := NewClock(store)
	require.NoError(t, err)
	now, err := again.Now()
	require.NoError(t, err)
	assert.True(t, now.After(last))
}
