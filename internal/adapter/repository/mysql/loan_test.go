package mysql

import (
	"context"
	"errors"
	"testing"

	eventDomain "nftpawn-backend/internal/domain/event"
	domain "nftpawn-backend/internal/domain/loan"
	"nftpawn-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Loan{}, &eventDomain.Event{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(borrower string) *domain.Loan {
	return &domain.Loan{
		Contract:       "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		TokenID:        1,
		MaturityPeriod: 300,
		Principal:      1_000_000_000_000_000_000,
		InterestRate:   5,
		Borrower:       borrower,
	}
}

func TestLoanRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	first := makeLoan("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID != 1 {
		t.Fatalf("first id = %d, want 1", first.ID)
	}

	second := makeLoan("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	second.TokenID = 2
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.ID != 2 {
		t.Fatalf("second id = %d, want 2", second.ID)
	}
}

func TestLoanRepository_GetByID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Borrower != l.Borrower || got.Principal != l.Principal {
		t.Errorf("unexpected loan: %+v", got)
	}

	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByID(999) = %v, want record-not-found", err)
	}
}

func TestLoanRepository_SaveUpdates(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	l.Accepted = true
	l.Lender = "0xcccccccccccccccccccccccccccccccccccccccc"
	l.MaturityDeadline = 1_760_000_300
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Accepted || got.Lender != l.Lender || got.MaturityDeadline != l.MaturityDeadline {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestLoanRepository_ExistsAndCounter(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	if n, err := repo.Counter(ctx); err != nil || n != 0 {
		t.Fatalf("empty Counter = %d, %v; want 0", n, err)
	}
	if ok, err := repo.Exists(ctx, 1); err != nil || ok {
		t.Fatalf("Exists(1) on empty = %v, %v; want false", ok, err)
	}

	l := makeLoan("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ok, err := repo.Exists(ctx, l.ID); err != nil || !ok {
		t.Fatalf("Exists(%d) = %v, %v; want true", l.ID, ok, err)
	}
	if ok, _ := repo.Exists(ctx, 0); ok {
		t.Fatalf("Exists(0) must be false; 0 is never a valid loan id")
	}
	if n, err := repo.Counter(ctx); err != nil || n != l.ID {
		t.Fatalf("Counter = %d, %v; want %d", n, err, l.ID)
	}
}

func TestEventRepository_AppendAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	for _, typ := range []eventDomain.Type{eventDomain.TypeProposed, eventDomain.TypeAccepted} {
		e := &eventDomain.Event{
			EventID: id.NewID32(),
			LoanID:  1,
			Type:    typ,
			Actor:   "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			Amount:  100,
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create(%s): %v", typ, err)
		}
	}

	evs, err := repo.ListByLoanID(ctx, 1)
	if err != nil {
		t.Fatalf("ListByLoanID: %v", err)
	}
	if len(evs) != 2 || evs[0].Type != eventDomain.TypeProposed || evs[1].Type != eventDomain.TypeAccepted {
		t.Fatalf("journal order wrong: %+v", evs)
	}

	if evs, _ := repo.ListByLoanID(ctx, 2); len(evs) != 0 {
		t.Fatalf("loan 2 journal = %d entries, want 0", len(evs))
	}
}
