package main

import (
	"context"

	"github.com/MixinNetwork/metatales/nft"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/ethereum/go-ethereum/common"
)

// ActivityWorker logs the activity feed shown on the gallery and dashboards.
type ActivityWorker struct {
	registry *nft.Registry
}

func NewActivityWorker(registry *nft.Registry) *ActivityWorker {
	return &ActivityWorker{registry: registry}
}

func (aw *ActivityWorker) ProcessEvent(ctx context.Context, tx *nft.Transaction, evt *nft.Event) error {
	name := aw.registry.Name()
	switch evt.Kind {
	case nft.EventMint:
		royalty := nft.Royalty{Recipient: evt.Recipient, Fraction: evt.Fraction}
		logger.Printf("%s #%d minted to %s %s royalty %s\n", name, evt.TokenId, evt.To.Hex(), evt.URI, royalty)
	case nft.EventRoyaltySet:
		logger.Printf("%s #%d royalty %s@%s\n", name, evt.TokenId, evt.Recipient.Hex(), evt.Fraction)
	case nft.EventDefaultRoyaltySet:
		logger.Printf("%s default royalty %s@%s\n", name, evt.Recipient.Hex(), evt.Fraction)
	case nft.EventTransfer:
		if evt.To == (common.Address{}) {
			logger.Printf("%s #%d burned by %s\n", name, evt.TokenId, tx.Caller.Hex())
		}
	}
	logger.Verbosef("ActivityWorker.ProcessEvent(%d, %s, %s, %s)\n", tx.Sequence, tx.TraceId, evt.Kind, evt.Topic().Hex())
	return nil
}
