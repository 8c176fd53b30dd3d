package http

import (
	"errors"
	"net/http"

	domainLoan "nftpawn-backend/internal/domain/loan"
	"nftpawn-backend/pkg/guard"
)

// statusFor maps the domain sentinels onto HTTP codes following the error
// taxonomy: validation 400, authorization 403, missing 404, insufficient
// attached payment 402, state conflicts 409, failed external send 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainLoan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainLoan.ErrNotBorrower),
		errors.Is(err, domainLoan.ErrNotTokenOwner):
		return http.StatusForbidden
	case errors.Is(err, domainLoan.ErrInsufficientPrincipal),
		errors.Is(err, domainLoan.ErrInsufficientRepayment):
		return http.StatusPaymentRequired
	case errors.Is(err, domainLoan.ErrAlreadyAccepted),
		errors.Is(err, domainLoan.ErrAlreadyPaid),
		errors.Is(err, domainLoan.ErrNotAccepted),
		errors.Is(err, domainLoan.ErrNotDue),
		errors.Is(err, guard.ErrHeld):
		return http.StatusConflict
	case errors.Is(err, domainLoan.ErrInvalidNFTAddress),
		errors.Is(err, domainLoan.ErrInvalidMaturityPeriod),
		errors.Is(err, domainLoan.ErrZeroPrincipal),
		errors.Is(err, domainLoan.ErrTermsOverflow):
		return http.StatusBadRequest
	case errors.Is(err, domainLoan.ErrSendFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
