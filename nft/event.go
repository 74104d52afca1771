package nft

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	EventCollection           = "Collection"
	EventOwnershipTransferred = "OwnershipTransferred"
	EventDefaultRoyaltySet    = "DefaultRoyaltySet"
	EventTransfer             = "Transfer"
	EventMint                 = "Mint"
	EventRoyaltySet           = "RoyaltySet"
	EventApproval             = "Approval"
	EventApprovalForAll       = "ApprovalForAll"
)

var eventSignatures = map[string]string{
	EventCollection:           "Collection(string,string)",
	EventOwnershipTransferred: "OwnershipTransferred(address,address)",
	EventDefaultRoyaltySet:    "DefaultRoyaltySet(address,uint96)",
	EventTransfer:             "Transfer(address,address,uint256)",
	EventMint:                 "Mint(uint256,address,string,address,uint96)",
	EventRoyaltySet:           "RoyaltySet(uint256,address,uint96)",
	EventApproval:             "Approval(address,address,uint256)",
	EventApprovalForAll:       "ApprovalForAll(address,address,bool)",
}

// Event is a single state change. Only the fields relevant to its Kind are
// set, e.g. a Mint carries TokenId, To, URI, Recipient and Fraction.
type Event struct {
	Kind      string
	TokenId   uint64         `msgpack:",omitempty"`
	From      common.Address `msgpack:",omitempty"`
	To        common.Address `msgpack:",omitempty"`
	URI       string         `msgpack:",omitempty"`
	Recipient common.Address `msgpack:",omitempty"`
	Fraction  Fraction       `msgpack:",omitempty"`
	Override  bool           `msgpack:",omitempty"`
	Approved  bool           `msgpack:",omitempty"`
	Name      string         `msgpack:",omitempty"`
	Symbol    string         `msgpack:",omitempty"`
}

// Topic is the keccak256 hash of the event signature, as an EVM log would
// index it. Unknown kinds hash to the zero value.
func (e *Event) Topic() common.Hash {
	sig, found := eventSignatures[e.Kind]
	if !found {
		return common.Hash{}
	}
	return crypto.Keccak256Hash([]byte(sig))
}

// Transaction is one committed mutation of the registry, the unit of the
// journal. Sequences start at 1 and have no gaps.
type Transaction struct {
	Sequence  uint64
	TraceId   string
	Caller    common.Address
	Events    []*Event
	CreatedAt time.Time
}
