package assetmock

import (
	"context"

	domain "nftpawn-backend/internal/domain/asset"
)

var (
	_ domain.Registry = (*Registry)(nil)
	_ domain.Sender   = (*Sender)(nil)
)

// Registry is a function-backed mock of the NFT collaborator.
type Registry struct {
	OwnerOfFn      func(ctx context.Context, ref domain.TokenRef) (string, error)
	TransferFromFn func(ctx context.Context, from, to string, ref domain.TokenRef) error
}

func (m *Registry) OwnerOf(ctx context.Context, ref domain.TokenRef) (string, error) {
	if m.OwnerOfFn != nil {
		return m.OwnerOfFn(ctx, ref)
	}
	return "", domain.ErrTokenNotFound
}

func (m *Registry) TransferFrom(ctx context.Context, from, to string, ref domain.TokenRef) error {
	if m.TransferFromFn != nil {
		return m.TransferFromFn(ctx, from, to, ref)
	}
	return nil
}

// Sender is a function-backed mock of the push-payment collaborator.
type Sender struct {
	SendFn func(ctx context.Context, to string, amount uint64) error

	// Sent records every successful push when SendFn is nil.
	Sent []Push
}

type Push struct {
	To     string
	Amount uint64
}

func (m *Sender) Send(ctx context.Context, to string, amount uint64) error {
	if m.SendFn != nil {
		return m.SendFn(ctx, to, amount)
	}
	m.Sent = append(m.Sent, Push{To: to, Amount: amount})
	return nil
}
