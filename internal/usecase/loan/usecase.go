package loan

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"nftpawn-backend/internal/domain/asset"
	domainEvent "nftpawn-backend/internal/domain/event"
	domainLoan "nftpawn-backend/internal/domain/loan"
	"nftpawn-backend/internal/domain/uow"
	"nftpawn-backend/pkg/guard"
	"nftpawn-backend/pkg/id"

	"gorm.io/gorm"
)

// Usecase owns the loan lifecycle: propose, accept, modify, repay and
// claim-on-default, plus the read queries. The value-moving transitions
// share one fail-fast latch; each transition runs inside a single
// transaction so a failed transfer rolls back every write it made.
type Usecase struct {
	repo    domainLoan.Repository
	events  domainEvent.Repository
	uow     uow.UnitOfWork
	custody string
	latch   *guard.Latch
	now     func() time.Time
}

// NewUsecase wires the repos for reads, the UoW for transitions, and the
// custody account that holds collateral between propose and settlement.
func NewUsecase(r domainLoan.Repository, ev domainEvent.Repository, tx uow.UnitOfWork, custodyAccount string) *Usecase {
	return &Usecase{repo: r, events: ev, uow: tx, custody: custodyAccount, latch: guard.New(), now: time.Now}
}

// WithClock overrides the time source; tests use it to step past maturity.
func (u *Usecase) WithClock(fn func() time.Time) *Usecase {
	u.now = fn
	return u
}

var reAccount = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

const zeroAddress = "0x0000000000000000000000000000000000000000"

func validContract(s string) bool {
	return reAccount.MatchString(s) && !strings.EqualFold(s, zeroAddress)
}

type ProposeInput struct {
	Caller         string
	Contract       string
	TokenID        uint64
	MaturityPeriod int64
	Principal      uint64
	InterestRate   uint64
}

type AcceptInput struct {
	Caller string
	LoanID uint64
	Amount uint64
}

type ModifyInput struct {
	Caller         string
	LoanID         uint64
	MaturityPeriod int64
	Principal      uint64
	InterestRate   uint64
}

type RepayInput struct {
	Caller string
	LoanID uint64
	Amount uint64
}

type ClaimInput struct {
	Caller string
	LoanID uint64
}

type LoanDTO struct {
	ID               uint64    `json:"id"`
	Contract         string    `json:"contract"`
	TokenID          uint64    `json:"token_id"`
	MaturityPeriod   int64     `json:"maturity_period"`
	MaturityDeadline int64     `json:"maturity_deadline"`
	Principal        uint64    `json:"principal"`
	InterestRate     uint64    `json:"interest_rate"`
	Accepted         bool      `json:"accepted"`
	Paid             bool      `json:"paid"`
	Lender           string    `json:"lender,omitempty"`
	Borrower         string    `json:"borrower"`
	CreatedAt        time.Time `json:"created_at"`
}

func toDTO(l *domainLoan.Loan) *LoanDTO {
	return &LoanDTO{
		ID:               l.ID,
		Contract:         l.Contract,
		TokenID:          l.TokenID,
		MaturityPeriod:   l.MaturityPeriod,
		MaturityDeadline: l.MaturityDeadline,
		Principal:        l.Principal,
		InterestRate:     l.InterestRate,
		Accepted:         l.Accepted,
		Paid:             l.Paid,
		Lender:           l.Lender,
		Borrower:         l.Borrower,
		CreatedAt:        l.CreatedAt,
	}
}

// Propose locks the caller's token as collateral and records a new loan.
// The row (and its id) is written before custody moves, inside the same
// transaction: if the custody transfer fails nothing is kept.
func (u *Usecase) Propose(ctx context.Context, in ProposeInput) (*LoanDTO, error) {
	if !validContract(in.Contract) {
		return nil, domainLoan.ErrInvalidNFTAddress
	}
	if err := domainLoan.ValidateTerms(in.MaturityPeriod, in.Principal, in.InterestRate); err != nil {
		return nil, err
	}

	if err := u.latch.Enter(); err != nil {
		return nil, err
	}
	defer u.latch.Exit()

	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ref := asset.TokenRef{Contract: in.Contract, TokenID: in.TokenID}

		owner, err := r.Tokens.OwnerOf(ctx, ref)
		if err != nil || !strings.EqualFold(owner, in.Caller) {
			return domainLoan.ErrNotTokenOwner
		}

		l := &domainLoan.Loan{
			Contract:       in.Contract,
			TokenID:        in.TokenID,
			MaturityPeriod: in.MaturityPeriod,
			Principal:      in.Principal,
			InterestRate:   in.InterestRate,
			Borrower:       in.Caller,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Events.Create(ctx, &domainEvent.Event{
			EventID: id.NewID32(),
			LoanID:  l.ID,
			Type:    domainEvent.TypeProposed,
			Actor:   in.Caller,
			Amount:  in.Principal,
		}); err != nil {
			return err
		}

		// Custody moves last; a failed transfer unwinds the row and event.
		if err := r.Tokens.TransferFrom(ctx, in.Caller, u.custody, ref); err != nil {
			return fmt.Errorf("collateral transfer: %w", err)
		}

		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Accept funds the loan: the lender's attached amount must cover the
// principal, and exactly the principal is pushed to the borrower. Any
// surplus the caller attached is not tracked and not refunded.
func (u *Usecase) Accept(ctx context.Context, in AcceptInput) (*LoanDTO, error) {
	if err := u.latch.Enter(); err != nil {
		return nil, err
	}
	defer u.latch.Exit()

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Accepted {
			return domainLoan.ErrAlreadyAccepted
		}
		if in.Amount < l.Principal {
			return domainLoan.ErrInsufficientPrincipal
		}

		l.Lender = in.Caller
		l.Accepted = true
		l.MaturityDeadline = u.now().Unix() + l.MaturityPeriod
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Events.Create(ctx, &domainEvent.Event{
			EventID: id.NewID32(),
			LoanID:  l.ID,
			Type:    domainEvent.TypeAccepted,
			Actor:   in.Caller,
			Amount:  l.Principal,
		}); err != nil {
			return err
		}

		if err := r.Payments.Send(ctx, l.Borrower, l.Principal); err != nil {
			return fmt.Errorf("%w: %v", domainLoan.ErrSendFailed, err)
		}

		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return dto, nil
}

// Modify rewrites the loan terms in place. Only the borrower may modify,
// and only while no lender has accepted. Collateral custody is untouched.
func (u *Usecase) Modify(ctx context.Context, in ModifyInput) (*LoanDTO, error) {
	if err := domainLoan.ValidateTerms(in.MaturityPeriod, in.Principal, in.InterestRate); err != nil {
		return nil, err
	}

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if !strings.EqualFold(l.Borrower, in.Caller) {
			return domainLoan.ErrNotBorrower
		}
		if l.Accepted {
			return domainLoan.ErrAlreadyAccepted
		}

		l.MaturityPeriod = in.MaturityPeriod
		l.Principal = in.Principal
		l.InterestRate = in.InterestRate
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Events.Create(ctx, &domainEvent.Event{
			EventID: id.NewID32(),
			LoanID:  l.ID,
			Type:    domainEvent.TypeModified,
			Actor:   in.Caller,
			Amount:  in.Principal,
		}); err != nil {
			return err
		}

		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return dto, nil
}

// Repay settles the loan: principal plus truncated interest goes to the
// lender, the collateral returns to the original borrower. Any account may
// repay on the borrower's behalf.
func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*LoanDTO, error) {
	if err := u.latch.Enter(); err != nil {
		return nil, err
	}
	defer u.latch.Exit()

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if !l.Accepted {
			return domainLoan.ErrNotAccepted
		}
		if l.Paid {
			return domainLoan.ErrAlreadyPaid
		}

		total := domainLoan.TotalDue(l.Principal, l.InterestRate)
		if in.Amount < total {
			return domainLoan.ErrInsufficientRepayment
		}

		l.Paid = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Events.Create(ctx, &domainEvent.Event{
			EventID: id.NewID32(),
			LoanID:  l.ID,
			Type:    domainEvent.TypeRepaid,
			Actor:   in.Caller,
			Amount:  total,
		}); err != nil {
			return err
		}

		// Exactly totalDue moves, never the attached surplus.
		if err := r.Payments.Send(ctx, l.Lender, total); err != nil {
			return fmt.Errorf("%w: %v", domainLoan.ErrSendFailed, err)
		}
		ref := asset.TokenRef{Contract: l.Contract, TokenID: l.TokenID}
		if err := r.Tokens.TransferFrom(ctx, u.custody, l.Borrower, ref); err != nil {
			return fmt.Errorf("collateral return: %w", err)
		}

		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return dto, nil
}

// ClaimOnDefault hands the collateral to the lender once the deadline has
// passed unpaid. Callable by anyone so an unresponsive lender cannot block
// the claim.
func (u *Usecase) ClaimOnDefault(ctx context.Context, in ClaimInput) (*LoanDTO, error) {
	if err := u.latch.Enter(); err != nil {
		return nil, err
	}
	defer u.latch.Exit()

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		// The deadline is meaningless until acceptance, so an unaccepted
		// loan is never claimable.
		if !l.Accepted {
			return domainLoan.ErrNotAccepted
		}
		if l.Paid {
			return domainLoan.ErrAlreadyPaid
		}
		if u.now().Unix() < l.MaturityDeadline {
			return domainLoan.ErrNotDue
		}

		l.Paid = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Events.Create(ctx, &domainEvent.Event{
			EventID: id.NewID32(),
			LoanID:  l.ID,
			Type:    domainEvent.TypeClaimed,
			Actor:   in.Caller,
		}); err != nil {
			return err
		}

		ref := asset.TokenRef{Contract: l.Contract, TokenID: l.TokenID}
		if err := r.Tokens.TransferFrom(ctx, u.custody, l.Lender, ref); err != nil {
			return fmt.Errorf("collateral claim: %w", err)
		}

		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return dto, nil
}

// Get returns the full record for a loan id.
func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return toDTO(l), nil
}

// Exists reports whether a loan id has ever been assigned.
func (u *Usecase) Exists(ctx context.Context, loanID uint64) (bool, error) {
	return u.repo.Exists(ctx, loanID)
}

// Counter returns the highest assigned loan id.
func (u *Usecase) Counter(ctx context.Context) (uint64, error) {
	return u.repo.Counter(ctx)
}

// Events returns the audit journal for a loan, oldest first.
func (u *Usecase) Events(ctx context.Context, loanID uint64) ([]domainEvent.Event, error) {
	ok, err := u.repo.Exists(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainLoan.ErrNotFound
	}
	return u.events.ListByLoanID(ctx, loanID)
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainLoan.ErrNotFound
	}
	return err
}
