package http

import (
	"net/http"
	"strconv"
	"strings"

	uc "nftpawn-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *uc.Usecase }

func NewLoanHandler(u *uc.Usecase) *LoanHandler { return &LoanHandler{uc: u} }

type proposeReq struct {
	Contract       string `json:"contract"        validate:"required"`
	TokenID        uint64 `json:"token_id"`
	MaturityPeriod int64  `json:"maturity_period"`
	Principal      uint64 `json:"principal"`
	InterestRate   uint64 `json:"interest_rate"`
}

type amountReq struct {
	Amount uint64 `json:"amount"`
}

type modifyReq struct {
	MaturityPeriod int64  `json:"maturity_period"`
	Principal      uint64 `json:"principal"`
	InterestRate   uint64 `json:"interest_rate"`
}

// caller pulls the invoking account from X-Account-Id. Any account may call
// any transition; the guards inside the transitions decide what it may do.
func caller(c echo.Context) (string, bool) {
	acct := strings.TrimSpace(c.Request().Header.Get("X-Account-Id"))
	return acct, reAccount.MatchString(acct)
}

func loanID(c echo.Context) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return n, err == nil && n > 0
}

func fail(c echo.Context, err error) error {
	return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func (h *LoanHandler) Propose(c echo.Context) error {
	acct, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid X-Account-Id"})
	}
	var req proposeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Propose(c.Request().Context(), uc.ProposeInput{
		Caller:         acct,
		Contract:       req.Contract,
		TokenID:        req.TokenID,
		MaturityPeriod: req.MaturityPeriod,
		Principal:      req.Principal,
		InterestRate:   req.InterestRate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Accept(c echo.Context) error {
	acct, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid X-Account-Id"})
	}
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	dto, err := h.uc.Accept(c.Request().Context(), uc.AcceptInput{Caller: acct, LoanID: id, Amount: req.Amount})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Modify(c echo.Context) error {
	acct, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid X-Account-Id"})
	}
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}
	var req modifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	dto, err := h.uc.Modify(c.Request().Context(), uc.ModifyInput{
		Caller:         acct,
		LoanID:         id,
		MaturityPeriod: req.MaturityPeriod,
		Principal:      req.Principal,
		InterestRate:   req.InterestRate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Repay(c echo.Context) error {
	acct, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid X-Account-Id"})
	}
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	dto, err := h.uc.Repay(c.Request().Context(), uc.RepayInput{Caller: acct, LoanID: id, Amount: req.Amount})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Claim(c echo.Context) error {
	acct, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid X-Account-Id"})
	}
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}

	dto, err := h.uc.ClaimOnDefault(c.Request().Context(), uc.ClaimInput{Caller: acct, LoanID: id})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Exists(c echo.Context) error {
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}
	exists, err := h.uc.Exists(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"exists": exists})
}

func (h *LoanHandler) Count(c echo.Context) error {
	n, err := h.uc.Counter(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]uint64{"count": n})
}

func (h *LoanHandler) Events(c echo.Context) error {
	id, ok := loanID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan id"})
	}
	evs, err := h.uc.Events(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, evs)
}

// Register mounts the loan routes on e.
func (h *LoanHandler) Register(e *echo.Echo) {
	e.POST("/loans", h.Propose)
	e.POST("/loans/:id/accept", h.Accept)
	e.PATCH("/loans/:id", h.Modify)
	e.POST("/loans/:id/repay", h.Repay)
	e.POST("/loans/:id/claim", h.Claim)
	e.GET("/loans/count", h.Count)
	e.GET("/loans/:id", h.Get)
	e.GET("/loans/:id/exists", h.Exists)
	e.GET("/loans/:id/events", h.Events)
}
