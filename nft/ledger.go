package nft

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the enumerable ownership book of a registry. Token ids start at
// 1 and are never reused, burned ids included.
type Ledger struct {
	owners    map[uint64]common.Address
	uris      map[uint64]string
	approvals map[uint64]common.Address
	operators map[common.Address]map[common.Address]bool

	owned      map[common.Address][]uint64
	ownedIndex map[uint64]int
	all        []uint64
	allIndex   map[uint64]int

	minted uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		owners:     make(map[uint64]common.Address),
		uris:       make(map[uint64]string),
		approvals:  make(map[uint64]common.Address),
		operators:  make(map[common.Address]map[common.Address]bool),
		owned:      make(map[common.Address][]uint64),
		ownedIndex: make(map[uint64]int),
		allIndex:   make(map[uint64]int),
	}
}

func (l *Ledger) Exists(id uint64) bool {
	_, found := l.owners[id]
	return found
}

func (l *Ledger) OwnerOf(id uint64) (common.Address, error) {
	owner, found := l.owners[id]
	if !found {
		return common.Address{}, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return owner, nil
}

func (l *Ledger) TokenURI(id uint64) (string, error) {
	if !l.Exists(id) {
		return "", fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return l.uris[id], nil
}

func (l *Ledger) BalanceOf(owner common.Address) (int, error) {
	if owner == (common.Address{}) {
		return 0, ErrInvalidOwner
	}
	return len(l.owned[owner]), nil
}

func (l *Ledger) GetApproved(id uint64) (common.Address, error) {
	if !l.Exists(id) {
		return common.Address{}, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return l.approvals[id], nil
}

func (l *Ledger) IsApprovedForAll(owner, operator common.Address) bool {
	return l.operators[owner][operator]
}

// IsApprovedOrOwner reports whether spender may move or burn the token.
func (l *Ledger) IsApprovedOrOwner(spender common.Address, id uint64) bool {
	owner, found := l.owners[id]
	if !found || spender == (common.Address{}) {
		return false
	}
	return spender == owner || l.approvals[id] == spender || l.IsApprovedForAll(owner, spender)
}

func (l *Ledger) TotalSupply() int {
	return len(l.all)
}

func (l *Ledger) TotalMinted() uint64 {
	return l.minted
}

func (l *Ledger) TokenByIndex(index int) (uint64, error) {
	if index < 0 || index >= len(l.all) {
		return 0, fmt.Errorf("%w: %d/%d", ErrIndexOutOfBounds, index, len(l.all))
	}
	return l.all[index], nil
}

func (l *Ledger) TokenOfOwnerByIndex(owner common.Address, index int) (uint64, error) {
	ids := l.owned[owner]
	if index < 0 || index >= len(ids) {
		return 0, fmt.Errorf("%w: %d/%d", ErrIndexOutOfBounds, index, len(ids))
	}
	return ids[index], nil
}

func (l *Ledger) TokensOfOwner(owner common.Address) []uint64 {
	ids := l.owned[owner]
	return append(make([]uint64, 0, len(ids)), ids...)
}

func (l *Ledger) nextTokenId() uint64 {
	return l.minted + 1
}

func (l *Ledger) mint(id uint64, to common.Address, uri string) {
	if id != l.nextTokenId() {
		panic(fmt.Errorf("mint out of order %d %d", id, l.minted))
	}
	l.minted = id
	l.owners[id] = to
	l.uris[id] = uri
	l.allIndex[id] = len(l.all)
	l.all = append(l.all, id)
	l.addOwned(to, id)
}

func (l *Ledger) setURI(id uint64, uri string) {
	if !l.Exists(id) {
		panic(id)
	}
	l.uris[id] = uri
}

func (l *Ledger) transfer(from, to common.Address, id uint64) {
	if l.owners[id] != from {
		panic(fmt.Errorf("transfer %d from %s not owner", id, from.Hex()))
	}
	delete(l.approvals, id)
	l.removeOwned(from, id)
	l.owners[id] = to
	l.addOwned(to, id)
}

func (l *Ledger) burn(id uint64) {
	owner, found := l.owners[id]
	if !found {
		panic(id)
	}
	delete(l.approvals, id)
	l.removeOwned(owner, id)
	delete(l.owners, id)
	delete(l.uris, id)

	i, last := l.allIndex[id], l.all[len(l.all)-1]
	l.all[i] = last
	l.allIndex[last] = i
	l.all = l.all[:len(l.all)-1]
	delete(l.allIndex, id)
}

func (l *Ledger) approve(to common.Address, id uint64) {
	if to == (common.Address{}) {
		delete(l.approvals, id)
		return
	}
	l.approvals[id] = to
}

func (l *Ledger) setApprovalForAll(owner, operator common.Address, approved bool) {
	ops := l.operators[owner]
	if ops == nil {
		ops = make(map[common.Address]bool)
		l.operators[owner] = ops
	}
	if approved {
		ops[operator] = true
	} else {
		delete(ops, operator)
	}
}

func (l *Ledger) addOwned(owner common.Address, id uint64) {
	l.ownedIndex[id] = len(l.owned[owner])
	l.owned[owner] = append(l.owned[owner], id)
}

func (l *Ledger) removeOwned(owner common.Address, id uint64) {
	ids := l.owned[owner]
	i, last := l.ownedIndex[id], ids[len(ids)-1]
	ids[i] = last
	l.ownedIndex[last] = i
	ids = ids[:len(ids)-1]
	delete(l.ownedIndex, id)
	if len(ids) == 0 {
		delete(l.owned, owner)
		return
	}
	l.owned[owner] = ids
}
