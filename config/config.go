package config

import (
	"fmt"
	"os"
	"time"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml"
)

type Configuration struct {
	Registry struct {
		Name   string `toml:"name"`
		Symbol string `toml:"symbol"`
		Owner  string `toml:"owner"`
	} `toml:"registry"`
	Royalty struct {
		Recipient string `toml:"recipient"`
		Percent   string `toml:"percent"`
	} `toml:"royalty"`
	Indexer struct {
		Batch    int `toml:"batch"`
		Interval int `toml:"interval"`
	} `toml:"indexer"`
	Logger struct {
		Level int `toml:"level"`
	} `toml:"logger"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(f)
}

func Parse(data []byte) (*Configuration, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = tree.Unmarshal(&conf)
	if err != nil {
		return nil, err
	}
	if conf.Indexer.Batch == 0 {
		conf.Indexer.Batch = 100
	}
	if conf.Indexer.Interval == 0 {
		conf.Indexer.Interval = 3
	}
	if !tree.Has("logger.level") {
		conf.Logger.Level = 2
	}
	if conf.Indexer.Batch < 0 || conf.Indexer.Interval < 0 {
		return nil, fmt.Errorf("invalid indexer batch %d interval %d", conf.Indexer.Batch, conf.Indexer.Interval)
	}
	return &conf, nil
}

func (conf *Configuration) IndexerInterval() time.Duration {
	return time.Duration(conf.Indexer.Interval) * time.Second
}

// Genesis is only used when the registry journal is still empty.
func (conf *Configuration) Genesis() (*nft.Genesis, error) {
	owner, err := ParseAddress(conf.Registry.Owner)
	if err != nil {
		return nil, fmt.Errorf("registry owner: %w", err)
	}
	recipient, err := ParseAddress(conf.Royalty.Recipient)
	if err != nil {
		return nil, fmt.Errorf("royalty recipient: %w", err)
	}
	fraction, err := nft.ParseFraction(conf.Royalty.Percent)
	if err != nil {
		return nil, err
	}
	return &nft.Genesis{
		Name:   conf.Registry.Name,
		Symbol: conf.Registry.Symbol,
		Owner:  owner,
		Royalty: nft.Royalty{
			Recipient: recipient,
			Fraction:  fraction,
		},
	}, nil
}

func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
