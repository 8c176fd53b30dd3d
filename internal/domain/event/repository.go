package event

import "context"

type Repository interface {
	Create(ctx context.Context, e *Event) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Event, error)
}
