package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/okalli/checkout-service/internal/checkout"
	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/mailer"
	"github.com/okalli/checkout-service/internal/mocks"
	"github.com/okalli/checkout-service/internal/payable"
	appvalidator "github.com/okalli/checkout-service/internal/validator"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

const orderPayableType = "order"

// testPayable is a minimal payable registered for handler tests.
type testPayable struct {
	ref       domain.PayableRef
	actions   []domain.CheckoutAction
	canCharge bool
}

func newTestPayable(actions ...domain.CheckoutAction) *testPayable {
	return &testPayable{
		ref:       domain.PayableRef{Type: orderPayableType, ID: 7},
		actions:   actions,
		canCharge: true,
	}
}

func (p *testPayable) PayableRef() domain.PayableRef            { return p.ref }
func (p *testPayable) CheckoutName() string                     { return "Alice Smith" }
func (p *testPayable) CheckoutEmail() string                    { return "alice@example.com" }
func (p *testPayable) CheckoutDescription() []string            { return []string{"Order", "7"} }
func (p *testPayable) CheckoutTotal() decimal.Decimal           { return decimal.NewFromFloat(100.00) }
func (p *testPayable) CheckoutActions() []domain.CheckoutAction { return p.actions }
func (p *testPayable) CheckoutCanCharge() bool                  { return p.canCharge }

func (p *testPayable) CheckoutSuccess(ctx context.Context, c *domain.Checkout) error { return nil }
func (p *testPayable) CheckoutFail(ctx context.Context) error                        { return nil }

func (p *testPayable) CheckoutSuccessURL(checkoutID int64) string { return "/thanks" }
func (p *testPayable) CheckoutFailURL(checkoutID int64) string    { return "/sorry" }
func (p *testPayable) AbsoluteURL() string                        { return "https://shop.example.com/orders/7" }

func newTestApplication(opts ...func(*application)) *application {
	app := &application{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		validator:      appvalidator.NewValidator(),
		sessionManager: scs.New(),

		customerRepo:    &mocks.MockCustomerRepo{},
		checkoutRepo:    &mocks.MockCheckoutRepo{},
		planRepo:        &mocks.MockPaymentPlanRepo{},
		payablePlanRepo: &mocks.MockPayablePlanRepo{},
		instalmentRepo:  &mocks.MockInstalmentRepo{},

		registry: payable.NewRegistry(),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// buildTestService wires the application's mocked repositories into a real
// checkout service, so handlers exercise the same dispatch they do in
// production.
func buildTestService(app *application, gateway domain.Gateway) *checkout.Service {
	service := checkout.NewService(checkout.ServiceConfig{
		Logger:       app.logger,
		Tx:           &mocks.MockTxRunner{},
		Customers:    app.customerRepo,
		Checkouts:    app.checkoutRepo,
		Plans:        app.planRepo,
		PayablePlans: app.payablePlanRepo,
		Instalments:  app.instalmentRepo,
		Gateway:      gateway,
		Mailer:       mailer.NewMockMailer(),
		Registry:     app.registry,
		Currency:     "GBP",
		NotifyEmails: []string{"admin@example.com"},
		Now:          func() time.Time { return testNow },
	})
	service.RegisterInstalmentPayable(app.registry)

	return service
}

func setupTestSession(t *testing.T, app *application, r *http.Request, userId int, email string, staff bool) *http.Request {
	ctx, err := app.sessionManager.Load(r.Context(), "session")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}

	app.sessionManager.Put(ctx, SessionKeyUserId.String(), userId)
	app.sessionManager.Put(ctx, SessionKeyEmail.String(), email)
	app.sessionManager.Put(ctx, SessionKeyStaff.String(), staff)

	return r.WithContext(ctx)
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(method, url, bytes.NewReader(jsonData))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// wrapHandler applies the session and actor middleware a routed request
// would pass through before the handler runs.
func wrapHandler(app *application, h http.HandlerFunc, staffOnly bool) http.Handler {
	handler := http.Handler(h)
	if staffOnly {
		handler = app.requireStaff(handler)
	}
	handler = app.resolveActor(handler)

	return app.sessionManager.LoadAndSave(handler)
}

// withURLParams injects chi route parameters for handlers tested outside
// the router.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	switch wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", wantErrMessage)
		}

	default:
		var errorResp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if wantErrMessage != "" && errorResp.Message != wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
