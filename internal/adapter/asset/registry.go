// Package asset holds gorm-backed stand-ins for the external asset
// contracts: a token registry for collateral custody and a payout journal
// for push-payments. They implement the domain asset ports and are bound
// into the same transaction as the loan registry by the unit of work.
package asset

import (
	"context"
	"strings"
	"time"

	assetDomain "nftpawn-backend/internal/domain/asset"

	"gorm.io/gorm"
)

// Token is one non-fungible unit tracked by the registry.
type Token struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	Contract  string    `gorm:"size:42;column:contract;uniqueIndex:ux_tokens_ref"`
	TokenID   uint64    `gorm:"column:token_id;uniqueIndex:ux_tokens_ref"`
	Owner     string    `gorm:"size:42;column:owner;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Token) TableName() string { return "tokens" }

type TokenRegistry struct{ db *gorm.DB }

func NewTokenRegistry(db *gorm.DB) *TokenRegistry { return &TokenRegistry{db: db} }

var _ assetDomain.Registry = (*TokenRegistry)(nil)

func (r *TokenRegistry) OwnerOf(ctx context.Context, ref assetDomain.TokenRef) (string, error) {
	var t Token
	res := r.db.WithContext(ctx).
		Where("contract = ? AND token_id = ?", ref.Contract, ref.TokenID).
		First(&t)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return "", assetDomain.ErrTokenNotFound
		}
		return "", res.Error
	}
	return t.Owner, nil
}

func (r *TokenRegistry) TransferFrom(ctx context.Context, from, to string, ref assetDomain.TokenRef) error {
	if strings.TrimSpace(to) == "" {
		return assetDomain.ErrInvalidRecipient
	}
	var t Token
	res := r.db.WithContext(ctx).
		Where("contract = ? AND token_id = ?", ref.Contract, ref.TokenID).
		First(&t)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return assetDomain.ErrTokenNotFound
		}
		return res.Error
	}
	if !strings.EqualFold(t.Owner, from) {
		return assetDomain.ErrNotOwner
	}
	t.Owner = to
	return r.db.WithContext(ctx).Save(&t).Error
}

// Mint records a fresh token for owner. Seeding and tests only; the real
// registry is an external contract.
func (r *TokenRegistry) Mint(ctx context.Context, owner string, ref assetDomain.TokenRef) error {
	t := Token{Contract: ref.Contract, TokenID: ref.TokenID, Owner: owner}
	return r.db.WithContext(ctx).Create(&t).Error
}
