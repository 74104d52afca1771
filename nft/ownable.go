package nft

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Ownable holds the single privileged account of a registry.
type Ownable struct {
	owner common.Address
}

func (o *Ownable) Owner() common.Address {
	return o.owner
}

func (o *Ownable) IsOwner(addr common.Address) bool {
	return addr != (common.Address{}) && addr == o.owner
}

func (o *Ownable) CheckOwner(caller common.Address) error {
	if !o.IsOwner(caller) {
		return fmt.Errorf("%w: %s is not the registry owner", ErrUnauthorized, caller.Hex())
	}
	return nil
}

func (o *Ownable) transfer(to common.Address) common.Address {
	old := o.owner
	o.owner = to
	return old
}
