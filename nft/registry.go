// Package nft implements a royalty bearing, enumerable and ownable non
// fungible token registry. Every mutation is appended to a journal as one
// Transaction before it becomes visible, and the registry state is rebuilt
// by replaying that journal.
package nft

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/mixin-sdk-go"
)

const replayBatchSize = 500

type Genesis struct {
	Name    string
	Symbol  string
	Owner   common.Address
	Royalty Royalty
}

type Registry struct {
	sync.RWMutex
	store Store
	clock *Clock

	name     string
	symbol   string
	sequence uint64

	access    *Ownable
	tokens    *Ledger
	royalties *Royalties
}

// NewRegistry replays the journal in store. An empty journal is initialized
// with genesis, which is ignored otherwise.
func NewRegistry(ctx context.Context, store Store, genesis *Genesis) (*Registry, error) {
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		store:     store,
		clock:     clock,
		access:    &Ownable{},
		tokens:    NewLedger(),
		royalties: NewRoyalties(Royalty{}),
	}
	err = r.replay(ctx)
	if err != nil {
		return nil, err
	}
	if r.sequence > 0 {
		return r, nil
	}

	if genesis == nil {
		return nil, ErrNotGenesis
	}
	if genesis.Owner == (common.Address{}) {
		return nil, ErrInvalidOwner
	}
	if err := genesis.Royalty.Validate(); err != nil {
		return nil, err
	}
	r.Lock()
	defer r.Unlock()
	_, err = r.commit(ctx, genesis.Owner, []*Event{{
		Kind:   EventCollection,
		Name:   genesis.Name,
		Symbol: genesis.Symbol,
	}, {
		Kind: EventOwnershipTransferred,
		To:   genesis.Owner,
	}, {
		Kind:      EventDefaultRoyaltySet,
		Recipient: genesis.Royalty.Recipient,
		Fraction:  genesis.Royalty.Fraction,
	}})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Name() string {
	r.RLock()
	defer r.RUnlock()
	return r.name
}

func (r *Registry) Symbol() string {
	r.RLock()
	defer r.RUnlock()
	return r.symbol
}

// Sequence is the number of the last committed transaction.
func (r *Registry) Sequence() uint64 {
	r.RLock()
	defer r.RUnlock()
	return r.sequence
}

func (r *Registry) Owner() common.Address {
	r.RLock()
	defer r.RUnlock()
	return r.access.Owner()
}

func (r *Registry) Mint(ctx context.Context, caller, to common.Address, uri string, recipient common.Address, fraction Fraction) (uint64, error) {
	if to == (common.Address{}) {
		return 0, ErrInvalidOwner
	}
	royalty := Royalty{Recipient: recipient, Fraction: fraction}
	if err := royalty.Validate(); err != nil {
		return 0, err
	}

	r.Lock()
	defer r.Unlock()

	id := r.tokens.nextTokenId()
	_, err := r.commit(ctx, caller, []*Event{{
		Kind:    EventTransfer,
		To:      to,
		TokenId: id,
	}, {
		Kind:      EventMint,
		TokenId:   id,
		To:        to,
		URI:       uri,
		Recipient: recipient,
		Fraction:  fraction,
		Override:  true,
	}, {
		Kind:      EventRoyaltySet,
		TokenId:   id,
		Recipient: recipient,
		Fraction:  fraction,
	}})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// MintWithDefaultRoyalty mints a token without an override, so its royalty
// follows every later change of the default.
func (r *Registry) MintWithDefaultRoyalty(ctx context.Context, caller, to common.Address, uri string) (uint64, error) {
	if to == (common.Address{}) {
		return 0, ErrInvalidOwner
	}

	r.Lock()
	defer r.Unlock()

	id := r.tokens.nextTokenId()
	fallback := r.royalties.Default()
	_, err := r.commit(ctx, caller, []*Event{{
		Kind:    EventTransfer,
		To:      to,
		TokenId: id,
	}, {
		Kind:      EventMint,
		TokenId:   id,
		To:        to,
		URI:       uri,
		Recipient: fallback.Recipient,
		Fraction:  fallback.Fraction,
	}})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Registry) SetTokenRoyalty(ctx context.Context, caller common.Address, id uint64, recipient common.Address, fraction Fraction) error {
	r.Lock()
	defer r.Unlock()

	owner, err := r.tokens.OwnerOf(id)
	if err != nil {
		return err
	}
	if caller != owner && !r.access.IsOwner(caller) {
		return fmt.Errorf("%w: %s may not set royalty of %d", ErrUnauthorized, caller.Hex(), id)
	}
	royalty := Royalty{Recipient: recipient, Fraction: fraction}
	if err := royalty.Validate(); err != nil {
		return err
	}
	_, err = r.commit(ctx, caller, []*Event{{
		Kind:      EventRoyaltySet,
		TokenId:   id,
		Recipient: recipient,
		Fraction:  fraction,
	}})
	return err
}

func (r *Registry) SetDefaultRoyalty(ctx context.Context, caller, recipient common.Address, fraction Fraction) error {
	r.Lock()
	defer r.Unlock()

	if err := r.access.CheckOwner(caller); err != nil {
		return err
	}
	royalty := Royalty{Recipient: recipient, Fraction: fraction}
	if err := royalty.Validate(); err != nil {
		return err
	}
	_, err := r.commit(ctx, caller, []*Event{{
		Kind:      EventDefaultRoyaltySet,
		Recipient: recipient,
		Fraction:  fraction,
	}})
	return err
}

// RoyaltyInfo never fails. A token that does not exist, whether burned or
// never minted, resolves to the default recipient with a zero amount.
func (r *Registry) RoyaltyInfo(id uint64, salePrice *big.Int) (common.Address, *big.Int) {
	r.RLock()
	defer r.RUnlock()
	return r.royalties.Resolve(id, r.tokens.Exists(id), salePrice)
}

func (r *Registry) GetDefaultRoyalty() Royalty {
	r.RLock()
	defer r.RUnlock()
	return r.royalties.Default()
}

// GetTokenRoyalty returns the override of a token, or nil when the token
// follows the default.
func (r *Registry) GetTokenRoyalty(id uint64) *Royalty {
	r.RLock()
	defer r.RUnlock()
	royalty, found := r.royalties.Token(id)
	if !found {
		return nil
	}
	return &royalty
}

func (r *Registry) Burn(ctx context.Context, caller common.Address, id uint64) error {
	r.Lock()
	defer r.Unlock()

	owner, err := r.tokens.OwnerOf(id)
	if err != nil {
		return err
	}
	if !r.tokens.IsApprovedOrOwner(caller, id) {
		return fmt.Errorf("%w: %s may not burn %d", ErrUnauthorized, caller.Hex(), id)
	}
	_, err = r.commit(ctx, caller, []*Event{{
		Kind:    EventTransfer,
		From:    owner,
		TokenId: id,
	}})
	return err
}

func (r *Registry) TransferFrom(ctx context.Context, caller, from, to common.Address, id uint64) error {
	r.Lock()
	defer r.Unlock()

	owner, err := r.tokens.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: %s does not own %d", ErrInvalidOwner, from.Hex(), id)
	}
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	if !r.tokens.IsApprovedOrOwner(caller, id) {
		return fmt.Errorf("%w: %s may not transfer %d", ErrUnauthorized, caller.Hex(), id)
	}
	_, err = r.commit(ctx, caller, []*Event{{
		Kind:    EventTransfer,
		From:    from,
		To:      to,
		TokenId: id,
	}})
	return err
}

func (r *Registry) Approve(ctx context.Context, caller, to common.Address, id uint64) error {
	r.Lock()
	defer r.Unlock()

	owner, err := r.tokens.OwnerOf(id)
	if err != nil {
		return err
	}
	if to == owner {
		return fmt.Errorf("%w: approval to current owner", ErrInvalidReceiver)
	}
	if caller != owner && !r.tokens.IsApprovedForAll(owner, caller) {
		return fmt.Errorf("%w: %s may not approve %d", ErrUnauthorized, caller.Hex(), id)
	}
	_, err = r.commit(ctx, caller, []*Event{{
		Kind:    EventApproval,
		From:    owner,
		To:      to,
		TokenId: id,
	}})
	return err
}

func (r *Registry) SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) error {
	if operator == (common.Address{}) || operator == caller {
		return fmt.Errorf("%w: operator %s", ErrInvalidReceiver, operator.Hex())
	}

	r.Lock()
	defer r.Unlock()

	_, err := r.commit(ctx, caller, []*Event{{
		Kind:     EventApprovalForAll,
		From:     caller,
		To:       operator,
		Approved: approved,
	}})
	return err
}

func (r *Registry) TransferOwnership(ctx context.Context, caller, to common.Address) error {
	if to == (common.Address{}) {
		return ErrInvalidOwner
	}
	return r.transferOwnership(ctx, caller, to)
}

// RenounceOwnership leaves the registry without an owner, which freezes the
// default royalty for good.
func (r *Registry) RenounceOwnership(ctx context.Context, caller common.Address) error {
	return r.transferOwnership(ctx, caller, common.Address{})
}

func (r *Registry) transferOwnership(ctx context.Context, caller, to common.Address) error {
	r.Lock()
	defer r.Unlock()

	if err := r.access.CheckOwner(caller); err != nil {
		return err
	}
	_, err := r.commit(ctx, caller, []*Event{{
		Kind: EventOwnershipTransferred,
		From: caller,
		To:   to,
	}})
	return err
}

func (r *Registry) OwnerOf(id uint64) (common.Address, error) {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.OwnerOf(id)
}

func (r *Registry) TokenURI(id uint64) (string, error) {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.TokenURI(id)
}

func (r *Registry) BalanceOf(owner common.Address) (int, error) {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.BalanceOf(owner)
}

func (r *Registry) GetApproved(id uint64) (common.Address, error) {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.GetApproved(id)
}

func (r *Registry) IsApprovedForAll(owner, operator common.Address) bool {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.IsApprovedForAll(owner, operator)
}

// TotalMinted counts every token ever minted, burns do not decrease it.
func (r *Registry) TotalMinted() uint64 {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.TotalMinted()
}

// TotalSupply counts the live tokens.
func (r *Registry) TotalSupply() int {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.TotalSupply()
}

func (r *Registry) TokenByIndex(index int) (uint64, error) {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.TokenByIndex(index)
}

func (r *Registry) TokenOfOwnerByIndex(owner common.Address, index int) (uint64, error) {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.TokenOfOwnerByIndex(owner, index)
}

func (r *Registry) TokensOfOwner(owner common.Address) []uint64 {
	r.RLock()
	defer r.RUnlock()
	return r.tokens.TokensOfOwner(owner)
}

// commit must be called with the write lock held and only after every
// precondition of events has been checked.
func (r *Registry) commit(ctx context.Context, caller common.Address, events []*Event) (*Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ts, err := r.clock.Now()
	if err != nil {
		return nil, err
	}
	seq := r.sequence + 1
	tx := &Transaction{
		Sequence:  seq,
		TraceId:   mixin.UniqueConversationID(r.traceSeed(events), strconv.FormatUint(seq, 10)),
		Caller:    caller,
		Events:    events,
		CreatedAt: ts,
	}
	err = r.store.WriteTransaction(tx)
	if err != nil {
		return nil, fmt.Errorf("write transaction %d: %w", seq, err)
	}
	r.apply(tx)
	logger.Verbosef("Registry.commit(%d, %s, %d events)\n", tx.Sequence, tx.TraceId, len(tx.Events))
	return tx, nil
}

func (r *Registry) traceSeed(events []*Event) string {
	if r.name != "" {
		return r.name
	}
	for _, e := range events {
		if e.Kind == EventCollection {
			return e.Name
		}
	}
	return ""
}

func (r *Registry) replay(ctx context.Context) error {
	r.Lock()
	defer r.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		txs, err := r.store.ListTransactions(r.sequence, replayBatchSize)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.Sequence != r.sequence+1 {
				panic(fmt.Errorf("journal gap %d after %d", tx.Sequence, r.sequence))
			}
			r.apply(tx)
		}
		if len(txs) < replayBatchSize {
			break
		}
	}
	if r.sequence > 0 {
		logger.Printf("Registry.replay(%s) => %d transactions %d tokens\n", r.name, r.sequence, r.tokens.TotalSupply())
	}
	return nil
}

func (r *Registry) apply(tx *Transaction) {
	for _, e := range tx.Events {
		switch e.Kind {
		case EventCollection:
			r.name, r.symbol = e.Name, e.Symbol
		case EventOwnershipTransferred:
			r.access.transfer(e.To)
		case EventDefaultRoyaltySet:
			r.royalties.setDefault(Royalty{Recipient: e.Recipient, Fraction: e.Fraction})
		case EventTransfer:
			r.applyTransfer(e)
		case EventMint:
			r.tokens.setURI(e.TokenId, e.URI)
			if e.Override {
				r.royalties.setToken(e.TokenId, Royalty{Recipient: e.Recipient, Fraction: e.Fraction})
			}
		case EventRoyaltySet:
			r.royalties.setToken(e.TokenId, Royalty{Recipient: e.Recipient, Fraction: e.Fraction})
		case EventApproval:
			r.tokens.approve(e.To, e.TokenId)
		case EventApprovalForAll:
			r.tokens.setApprovalForAll(e.From, e.To, e.Approved)
		default:
			panic(e.Kind)
		}
	}
	r.sequence = tx.Sequence
}

func (r *Registry) applyTransfer(e *Event) {
	zero := common.Address{}
	switch {
	case e.From == zero:
		r.tokens.mint(e.TokenId, e.To, "")
	case e.To == zero:
		r.tokens.burn(e.TokenId)
		r.royalties.deleteToken(e.TokenId)
	default:
		r.tokens.transfer(e.From, e.To, e.TokenId)
	}
}
