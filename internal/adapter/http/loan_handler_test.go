package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	assetStore "nftpawn-backend/internal/adapter/asset"
	"nftpawn-backend/internal/adapter/repository/mysql"
	"nftpawn-backend/internal/domain/asset"
	eventDomain "nftpawn-backend/internal/domain/event"
	loanDomain "nftpawn-backend/internal/domain/loan"
	uc "nftpawn-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	tBorrower = "0x" + strings.Repeat("b", 40)
	tLender   = "0x" + strings.Repeat("c", 40)
	tCustody  = "0x" + strings.Repeat("d", 40)
	tContract = "0x" + strings.Repeat("a", 40)
)

const tPrincipal = uint64(1_000_000_000_000_000_000)

type server struct {
	e      *echo.Echo
	tokens *assetStore.TokenRegistry
}

func newServer(t *testing.T) *server {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&loanDomain.Loan{},
		&eventDomain.Event{},
		&assetStore.Token{},
		&assetStore.Payout{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	usecase := uc.NewUsecase(
		mysql.NewLoanRepository(gdb),
		mysql.NewEventRepository(gdb),
		mysql.NewGormUoW(gdb),
		tCustody,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	NewLoanHandler(usecase).Register(e)

	return &server{e: e, tokens: assetStore.NewTokenRegistry(gdb)}
}

func (s *server) mint(t *testing.T, owner string, tokenID uint64) {
	t.Helper()
	if err := s.tokens.Mint(context.Background(), owner, asset.TokenRef{Contract: tContract, TokenID: tokenID}); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func (s *server) do(t *testing.T, method, path, account string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if account != "" {
		req.Header.Set("X-Account-Id", account)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func proposeBody() map[string]any {
	return map[string]any{
		"contract":        tContract,
		"token_id":        7,
		"maturity_period": 300,
		"principal":       tPrincipal,
		"interest_rate":   5,
	}
}

func TestPropose_Success(t *testing.T) {
	s := newServer(t)
	s.mint(t, tBorrower, 7)

	rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, proposeBody())
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201 (body=%s)", rec.Code, rec.Body.String())
	}

	var dto uc.LoanDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.ID != 1 || dto.Borrower != tBorrower || dto.Accepted || dto.Paid {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}

func TestPropose_MissingAccountHeader(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, stdhttp.MethodPost, "/loans", "", proposeBody())
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPropose_MissingContractFieldFailsValidation(t *testing.T) {
	s := newServer(t)
	body := proposeBody()
	delete(body, "contract")
	rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, body)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Details) == 0 {
		t.Fatalf("expected field error details, got %s", rec.Body.String())
	}
}

func TestPropose_NotTokenOwner(t *testing.T) {
	s := newServer(t)
	s.mint(t, tLender, 7) // someone else owns it

	rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, proposeBody())
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body=%s)", rec.Code, rec.Body.String())
	}
}

func TestAccept_Insufficient(t *testing.T) {
	s := newServer(t)
	s.mint(t, tBorrower, 7)
	if rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, proposeBody()); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("propose: %d", rec.Code)
	}

	rec := s.do(t, stdhttp.MethodPost, "/loans/1/accept", tLender, map[string]any{"amount": tPrincipal - 1})
	if rec.Code != stdhttp.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402 (body=%s)", rec.Code, rec.Body.String())
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	s.mint(t, tBorrower, 7)

	if rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, proposeBody()); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("propose: %d", rec.Code)
	}

	// lender funds it
	rec := s.do(t, stdhttp.MethodPost, "/loans/1/accept", tLender, map[string]any{"amount": tPrincipal})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("accept: %d (body=%s)", rec.Code, rec.Body.String())
	}

	// double accept is refused
	rec = s.do(t, stdhttp.MethodPost, "/loans/1/accept", tLender, map[string]any{"amount": tPrincipal})
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("second accept: %d, want 409", rec.Code)
	}

	// repay with exactly principal + 5%
	rec = s.do(t, stdhttp.MethodPost, "/loans/1/repay", tBorrower, map[string]any{"amount": uint64(1_050_000_000_000_000_000)})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("repay: %d (body=%s)", rec.Code, rec.Body.String())
	}

	// record is terminal now
	rec = s.do(t, stdhttp.MethodPost, "/loans/1/claim", tLender, nil)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("claim after repay: %d, want 409", rec.Code)
	}

	rec = s.do(t, stdhttp.MethodGet, "/loans/1", "", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	var dto uc.LoanDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &dto)
	if !dto.Paid || !dto.Accepted || dto.Lender != tLender {
		t.Fatalf("final record wrong: %+v", dto)
	}

	rec = s.do(t, stdhttp.MethodGet, "/loans/count", "", nil)
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Fatalf("count: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, stdhttp.MethodGet, "/loans/1/exists", "", nil)
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"exists":true`) {
		t.Fatalf("exists: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, stdhttp.MethodGet, "/loans/1/events", "", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("events: %d", rec.Code)
	}
	var evs []eventDomain.Event
	_ = json.Unmarshal(rec.Body.Bytes(), &evs)
	if len(evs) != 3 {
		t.Fatalf("events = %d, want proposed+accepted+repaid", len(evs))
	}
}

func TestModify_ByStranger(t *testing.T) {
	s := newServer(t)
	s.mint(t, tBorrower, 7)
	if rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, proposeBody()); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("propose failed")
	}

	rec := s.do(t, stdhttp.MethodPatch, "/loans/1", tLender, map[string]any{
		"maturity_period": 600, "principal": tPrincipal, "interest_rate": 1,
	})
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, stdhttp.MethodGet, "/loans/42", "", nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestBadLoanIDParam(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/loans/abc", "/loans/0"} {
		rec := s.do(t, stdhttp.MethodGet, path, "", nil)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("GET %s = %d, want 400", path, rec.Code)
		}
	}
}

func TestClaim_NotDueOverHTTP(t *testing.T) {
	s := newServer(t)
	s.mint(t, tBorrower, 7)
	if rec := s.do(t, stdhttp.MethodPost, "/loans", tBorrower, proposeBody()); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("propose failed")
	}
	if rec := s.do(t, stdhttp.MethodPost, "/loans/1/accept", tLender, map[string]any{"amount": tPrincipal}); rec.Code != stdhttp.StatusOK {
		t.Fatalf("accept failed")
	}

	// maturity is 300s out; wall clock has not reached it
	rec := s.do(t, stdhttp.MethodPost, "/loans/1/claim", tLender, nil)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("claim = %d, want 409 not-due", rec.Code)
	}
}
