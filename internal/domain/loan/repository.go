package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate takes a row lock; only valid inside a transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	// Counter returns the highest assigned loan id, 0 when none.
	Counter(ctx context.Context) (uint64, error)
	Save(ctx context.Context, l *Loan) error
}
