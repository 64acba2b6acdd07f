package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/clinicdesk-backend/internal/bookings"
	"github.com/rmoralesp/clinicdesk-backend/internal/goals"
	"github.com/rmoralesp/clinicdesk-backend/internal/ledger"
	"github.com/rmoralesp/clinicdesk-backend/internal/quotas"
	"github.com/rmoralesp/clinicdesk-backend/internal/reports"
	pkgAuth "github.com/rmoralesp/clinicdesk-backend/pkg/auth"
	"github.com/rmoralesp/clinicdesk-backend/pkg/config"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db/models"
	"github.com/rmoralesp/clinicdesk-backend/pkg/enums"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubLedgerService struct {
	listed bool
}

func (s *stubLedgerService) RecordPayment(ctx context.Context, intent ledger.PaymentIntent) (*ledger.WriteResult, error) {
	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     intent.OwnerID,
		GrossAmount: intent.GrossAmount,
		Status:      enums.PaymentStatusPending,
	}
	return &ledger.WriteResult{Entry: entry, Confirmed: true, Strategy: "full", Passes: 1}, nil
}

func (s *stubLedgerService) SettlePending(ctx context.Context, ownerID, entryID uuid.UUID, paidAt *time.Time) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{ID: entryID, OwnerID: ownerID, Status: enums.PaymentStatusPaid}, nil
}

func (s *stubLedgerService) ListPayments(ctx context.Context, params ledger.ListPaymentsParams) (*ledger.ListPaymentsResult, error) {
	s.listed = true
	return &ledger.ListPaymentsResult{Entries: []models.LedgerEntry{}}, nil
}

func (s *stubLedgerService) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type stubBookingService struct{}

func (stubBookingService) Create(ctx context.Context, params bookings.CreateParams) ([]models.Booking, error) {
	return []models.Booking{{ID: uuid.New(), OwnerID: params.OwnerID, Status: enums.BookingStatusScheduled}}, nil
}

func (stubBookingService) Complete(ctx context.Context, params bookings.CompleteParams) (*models.Booking, error) {
	return &models.Booking{ID: params.BookingID, OwnerID: params.OwnerID, Status: enums.BookingStatusCompleted}, nil
}

func (stubBookingService) ListByDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	return nil, nil
}

type stubReportService struct{}

func (stubReportService) Report(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) ([]reports.Bucket, error) {
	return []reports.Bucket{}, nil
}

func (stubReportService) Summarize(ctx context.Context, ownerID uuid.UUID, period enums.ReportPeriod) (*reports.Summary, error) {
	return &reports.Summary{}, nil
}

type stubQuotaService struct{}

func (stubQuotaService) CheckQuota(ctx context.Context, ownerID uuid.UUID, dimension enums.QuotaDimension, additional int) error {
	return nil
}

func (stubQuotaService) Snapshot(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]quotas.Usage, error) {
	return []quotas.Usage{}, nil
}

type stubGoalService struct{}

func (stubGoalService) Create(ctx context.Context, input goals.CreateGoalInput) (*models.Goal, error) {
	return &models.Goal{ID: uuid.New(), OwnerID: input.OwnerID, Title: input.Title}, nil
}

func (stubGoalService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Goal, error) {
	return []models.Goal{}, nil
}

func (stubGoalService) IncrementTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, category enums.GoalCategory, delta decimal.Decimal) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "clinicdesk", ExpirationMinutes: 60},
	}
}

func newTestRouter(t *testing.T, ledgerSvc ledger.Service) http.Handler {
	t.Helper()
	return NewRouter(
		testConfig(),
		logger.New(logger.Options{ServiceName: "router-test"}),
		stubPinger{},
		nil,
		ledgerSvc,
		stubBookingService{},
		stubReportService{},
		stubQuotaService{},
		stubGoalService{},
	)
}

func mintToken(t *testing.T) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:  uuid.New(),
		OwnerID: uuid.New(),
		JTI:     uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicPingNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t, &stubLedgerService{})
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, &stubLedgerService{})
	for _, path := range []string{"/api/ping", "/api/v1/payments", "/api/v1/quotas"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestListPaymentsAuthorized(t *testing.T) {
	svc := &stubLedgerService{}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.listed {
		t.Fatal("expected the ledger service to be called")
	}
}

func TestRecordPaymentCreated(t *testing.T) {
	router := newTestRouter(t, &stubLedgerService{})

	body := strings.NewReader(`{"grossAmount":"150.00","discount":"10.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", body)
	req.Header.Set("Authorization", "Bearer "+mintToken(t))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}
