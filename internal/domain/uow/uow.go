package uow

import (
	"context"

	"nftpawn-backend/internal/domain/asset"
	"nftpawn-backend/internal/domain/event"
	"nftpawn-backend/internal/domain/loan"
)

// Repos is the set of collaborators bound to one transaction. The custody
// registry and the payment sender join the same transaction as the loan and
// event repositories, so a failed transfer anywhere rolls back the whole
// transition: no partial commit, ever.
type Repos struct {
	Loans    loan.Repository
	Events   event.Repository
	Tokens   asset.Registry
	Payments asset.Sender
}

type UnitOfWork interface {
	// WithinTx runs fn atomically; fn returning an error rolls back.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row up-front, then runs fn.
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
