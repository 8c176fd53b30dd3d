package asset

import (
	"context"
	"strings"
	"time"

	assetDomain "nftpawn-backend/internal/domain/asset"

	"gorm.io/gorm"
)

// Payout is one push-payment the system made. Append-only journal.
type Payout struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	Account   string    `gorm:"size:42;column:account;index"`
	Amount    uint64    `gorm:"column:amount"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Payout) TableName() string { return "payouts" }

type PayoutLedger struct{ db *gorm.DB }

func NewPayoutLedger(db *gorm.DB) *PayoutLedger { return &PayoutLedger{db: db} }

var _ assetDomain.Sender = (*PayoutLedger)(nil)

func (p *PayoutLedger) Send(ctx context.Context, to string, amount uint64) error {
	if strings.TrimSpace(to) == "" {
		return assetDomain.ErrInvalidRecipient
	}
	return p.db.WithContext(ctx).Create(&Payout{Account: to, Amount: amount}).Error
}

// TotalFor sums everything pushed to an account.
func (p *PayoutLedger) TotalFor(ctx context.Context, account string) (uint64, error) {
	var n uint64
	res := p.db.WithContext(ctx).Model(&Payout{}).
		Where("account = ?", account).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&n)
	return n, res.Error
}
