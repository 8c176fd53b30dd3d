package mysql

import (
	"context"

	loanDomain "nftpawn-backend/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).First(&out, "id = ?", id)
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

// GetByIDForUpdate locks the row for the enclosing transaction. SQLite has
// no FOR UPDATE; its single-writer model makes the lock redundant there.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out loanDomain.Loan
	res := q.First(&out, "id = ?", id)
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *LoanRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Where("id = ?", id).Count(&n)
	return n > 0, res.Error
}

func (r *LoanRepository) Counter(ctx context.Context) (uint64, error) {
	var n uint64
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&n)
	return n, res.Error
}
