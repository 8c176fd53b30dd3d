package loan

import (
	"math"
	"math/bits"
	"time"
)

// Loan is one collateralized loan record. The auto-increment primary key is
// the public loan id: strictly increasing, first id is 1, 0 is never valid.
// A loan exists iff its row exists; rows are never deleted (audit trail).
type Loan struct {
	ID               uint64    `gorm:"primaryKey;column:id" json:"id"`
	Contract         string    `gorm:"size:42;column:contract;index:idx_loans_collateral" json:"contract"`
	TokenID          uint64    `gorm:"column:token_id;index:idx_loans_collateral" json:"token_id"`
	MaturityPeriod   int64     `gorm:"column:maturity_period" json:"maturity_period"`
	MaturityDeadline int64     `gorm:"column:maturity_deadline" json:"maturity_deadline"`
	Principal        uint64    `gorm:"column:principal" json:"principal"`
	InterestRate     uint64    `gorm:"column:interest_rate" json:"interest_rate"`
	Accepted         bool      `gorm:"column:accepted" json:"accepted"`
	Paid             bool      `gorm:"column:paid" json:"paid"`
	Lender           string    `gorm:"size:42;column:lender" json:"lender"`
	Borrower         string    `gorm:"size:42;column:borrower;index" json:"borrower"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// InterestDue is the fixed interest on the loan terms: floor(principal*rate/100)
// with truncating integer division. The 128-bit intermediate keeps wei-scale
// principals exact where a plain uint64 product would wrap. Callers must have
// validated the terms with ValidateTerms; Div64 requires the quotient to fit.
func InterestDue(principal, rate uint64) uint64 {
	hi, lo := bits.Mul64(principal, rate)
	quo, _ := bits.Div64(hi, lo, 100)
	return quo
}

// TotalDue is principal plus truncated interest. Callers must have validated
// the terms with ValidateTerms, otherwise the sum can wrap.
func TotalDue(principal, rate uint64) uint64 {
	return principal + InterestDue(principal, rate)
}

// ValidateTerms checks the term fields shared by propose and modify.
// Terms whose total due cannot be represented are rejected here so the
// repay math stays plain uint64.
func ValidateTerms(maturityPeriod int64, principal, rate uint64) error {
	if maturityPeriod <= 0 {
		return ErrInvalidMaturityPeriod
	}
	if principal == 0 {
		return ErrZeroPrincipal
	}
	// interest itself must fit: principal*rate/100 < 2^64
	hi, _ := bits.Mul64(principal, rate)
	if hi >= 100 {
		return ErrTermsOverflow
	}
	if principal > math.MaxUint64-InterestDue(principal, rate) {
		return ErrTermsOverflow
	}
	return nil
}
