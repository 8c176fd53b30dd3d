package loan

import "errors"

// Every transition failure surfaces one of these sentinels; there is no
// generic catch-all. Transport layers match with errors.Is.
var (
	// input validation
	ErrInvalidNFTAddress     = errors.New("invalid nft address")
	ErrInvalidMaturityPeriod = errors.New("invalid maturity period")
	ErrZeroPrincipal         = errors.New("principal cannot be zero")
	ErrTermsOverflow         = errors.New("loan terms overflow")

	// authorization
	ErrNotTokenOwner = errors.New("caller does not own this token")
	ErrNotBorrower   = errors.New("caller is not the loan borrower")

	// state consistency
	ErrNotFound        = errors.New("loan does not exist")
	ErrAlreadyAccepted = errors.New("loan already accepted")
	ErrNotAccepted     = errors.New("loan has not been accepted")
	ErrAlreadyPaid     = errors.New("loan already paid")
	ErrNotDue          = errors.New("loan not due yet")

	// value transfer
	ErrInsufficientPrincipal = errors.New("insufficient principal attached")
	ErrInsufficientRepayment = errors.New("insufficient repay amount")
	ErrSendFailed            = errors.New("failed to send asset")
)
