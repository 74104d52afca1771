package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	conf, err := Setup("example.toml")
	require.NoError(t, err)
	assert.Equal(t, "Meta-Tales", conf.Registry.Name)
	assert.Equal(t, 100, conf.Indexer.Batch)
	assert.Equal(t, 3*time.Second, conf.IndexerInterval())

	g, err := conf.Genesis()
	require.NoError(t, err)
	assert.Equal(t, "TALE", g.Symbol)
	assert.Equal(t, common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"), g.Owner)
	assert.Equal(t, nft.Fraction(250), g.Royalty.Fraction)

	_, err = Setup(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[registry]
name = "Tales"
owner = "0x0000000000000000000000000000000000000001"

[royalty]
recipient = "0x0000000000000000000000000000000000000002"
percent = "12"
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	conf, err := Setup(path)
	require.NoError(t, err)
	assert.Equal(t, 100, conf.Indexer.Batch)
	assert.Equal(t, 3, conf.Indexer.Interval)
	assert.Equal(t, 2, conf.Logger.Level)

	_, err = conf.Genesis()
	assert.ErrorIs(t, err, nft.ErrRoyaltyTooHigh)

	conf.Royalty.Percent = "1.5"
	conf.Registry.Owner = "alice"
	_, err = conf.Genesis()
	assert.Error(t, err)

	_, err = Parse([]byte("[indexer]\nbatch = -1\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("not toml ="))
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, common.BytesToAddress([]byte{1}), addr)
	_, err = ParseAddress("0x01")
	assert.Error(t, err)
}

func TestParseLoggerLevel(t *testing.T) {
	conf, err := Parse([]byte("[logger]\nlevel = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, conf.Logger.Level)

	conf, err = Parse([]byte("[logger]\nlevel = 7\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, conf.Logger.Level)

	conf, err = Parse([]byte("[registry]\nname = \"Tales\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, conf.Logger.Level)
}
