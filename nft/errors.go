package nft

import "errors"

var (
	ErrInvalidOwner     = errors.New("nft: invalid owner")
	ErrInvalidRecipient = errors.New("nft: invalid royalty recipient")
	ErrRoyaltyTooHigh   = errors.New("nft: royalty fraction exceeds cap")
	ErrTokenNotFound    = errors.New("nft: token not found")
	ErrUnauthorized     = errors.New("nft: unauthorized caller")

	ErrInvalidReceiver  = errors.New("nft: invalid transfer receiver")
	ErrIndexOutOfBounds = errors.New("nft: index out of bounds")
	ErrNotGenesis       = errors.New("nft: empty journal without genesis")
)
