// Package asset declares the external collaborator ports: the non-fungible
// token registry holding collateral and the push-payment sender. Both are
// opaque capabilities; any failure they return aborts the surrounding
// transition.
package asset

import (
	"context"
	"errors"
)

var (
	ErrTokenNotFound    = errors.New("token does not exist")
	ErrNotOwner         = errors.New("transfer not initiated by token owner")
	ErrInvalidRecipient = errors.New("invalid transfer recipient")
)

// TokenRef identifies one non-fungible unit.
type TokenRef struct {
	Contract string `json:"contract"`
	TokenID  uint64 `json:"token_id"`
}

// Registry is the NFT collaborator: ownership query plus custody transfer.
type Registry interface {
	OwnerOf(ctx context.Context, ref TokenRef) (string, error)
	TransferFrom(ctx context.Context, from, to string, ref TokenRef) error
}

// Sender pushes value to an external account. Success must be observed
// before the caller continues; failure carries no partial effect.
type Sender interface {
	Send(ctx context.Context, to string, amount uint64) error
}
