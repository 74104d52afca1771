package nft

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Royalty struct {
	Recipient common.Address
	Fraction  Fraction
}

func (r Royalty) Validate() error {
	if r.Recipient == (common.Address{}) {
		return ErrInvalidRecipient
	}
	return r.Fraction.Validate()
}

func (r Royalty) String() string {
	return fmt.Sprintf("%s@%s", r.Recipient.Hex(), r.Fraction)
}

// Royalties resolves per token overrides against the collection default.
type Royalties struct {
	fallback  Royalty
	overrides map[uint64]Royalty
}

func NewRoyalties(fallback Royalty) *Royalties {
	return &Royalties{
		fallback:  fallback,
		overrides: make(map[uint64]Royalty),
	}
}

func (rs *Royalties) Default() Royalty {
	return rs.fallback
}

func (rs *Royalties) Token(id uint64) (Royalty, bool) {
	r, found := rs.overrides[id]
	return r, found
}

// Resolve picks the override of a live token, otherwise the default. The
// amount is always zero when the token does not currently exist.
func (rs *Royalties) Resolve(id uint64, exists bool, salePrice *big.Int) (common.Address, *big.Int) {
	r := rs.fallback
	if o, found := rs.overrides[id]; found && exists {
		r = o
	}
	if !exists {
		return r.Recipient, new(big.Int)
	}
	return r.Recipient, r.Fraction.Apply(salePrice)
}

func (rs *Royalties) setDefault(r Royalty) {
	rs.fallback = r
}

func (rs *Royalties) setToken(id uint64, r Royalty) {
	rs.overrides[id] = r
}

func (rs *Royalties) deleteToken(id uint64) {
	delete(rs.overrides, id)
}
