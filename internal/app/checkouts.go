package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okalli/checkout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateCheckoutRequest struct {
	Action      string          `json:"action" validate:"required"`
	PayableType string          `json:"payable_type" validate:"required"`
	PayableId   int64           `json:"payable_id" validate:"required,gt=0"`
	Token       string          `json:"token"`
	Plan        string          `json:"plan"`
	Invoice     *InvoiceRequest `json:"invoice"`
}

type InvoiceRequest struct {
	CompanyName string `json:"company_name" validate:"max=100"`
	Address1    string `json:"address_1" validate:"max=100"`
	Address2    string `json:"address_2" validate:"max=100"`
	Address3    string `json:"address_3" validate:"max=100"`
	Town        string `json:"town" validate:"max=100"`
	County      string `json:"county" validate:"max=100"`
	Postcode    string `json:"postcode" validate:"max=20"`
	Country     string `json:"country" validate:"max=100"`
	ContactName string `json:"contact_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=50"`
}

type CheckoutResponse struct {
	Id          int64            `json:"id"`
	Reference   string           `json:"reference"`
	Date        time.Time        `json:"date"`
	Action      string           `json:"action"`
	State       string           `json:"state"`
	Description string           `json:"description"`
	Total       *decimal.Decimal `json:"total,omitempty"`
	PayableType string           `json:"payable_type"`
	PayableId   int64            `json:"payable_id"`
}

type InstalmentResponse struct {
	Id      int64           `json:"id"`
	Count   int             `json:"count"`
	State   string          `json:"state"`
	Deposit bool            `json:"deposit"`
	Amount  decimal.Decimal `json:"amount"`
	Due     string          `json:"due"`
}

func toCheckoutResponse(checkout *domain.Checkout) CheckoutResponse {
	return CheckoutResponse{
		Id:          checkout.ID,
		Reference:   checkout.Reference,
		Date:        checkout.CheckoutDate,
		Action:      string(checkout.Action),
		State:       string(checkout.State),
		Description: checkout.Description,
		Total:       checkout.Total,
		PayableType: checkout.Payable.Type,
		PayableId:   checkout.Payable.ID,
	}
}

func (app *application) payableRefParam(r *http.Request) (domain.PayableRef, error) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		return domain.PayableRef{}, err
	}

	return domain.PayableRef{Type: chi.URLParam(r, "type"), ID: id}, nil
}

func (app *application) writeCheckout(w http.ResponseWriter, r *http.Request, checkout *domain.Checkout) {
	err := app.writeJSON(w, http.StatusCreated, toCheckoutResponse(checkout), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CreateCheckoutHandler is the single interactive entry point. The action
// in the body decides which checkout operation runs; staff-only operations
// (charge, manual) have their own routes.
func (app *application) CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutRequest

	err := app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(req)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	ref := domain.PayableRef{Type: req.PayableType, ID: req.PayableId}
	actor := app.contextActor(r)

	var checkout *domain.Checkout

	switch domain.CheckoutAction(req.Action) {
	case domain.ActionPayment:
		if req.Token == "" {
			app.badRequestResponse(w, r, errors.New("a card token is required for this action"))
			return
		}
		checkout, err = app.service.Pay(r.Context(), ref, actor, req.Token)

	case domain.ActionCardRefresh:
		if req.Token == "" {
			app.badRequestResponse(w, r, errors.New("a card token is required for this action"))
			return
		}
		checkout, err = app.service.CardRefresh(r.Context(), ref, actor, req.Token)

	case domain.ActionPaymentPlan:
		if req.Token == "" || req.Plan == "" {
			app.badRequestResponse(w, r, errors.New("a card token and a plan are required for this action"))
			return
		}
		checkout, err = app.service.SetUpPaymentPlan(r.Context(), ref, actor, req.Plan, req.Token)

	case domain.ActionInvoice:
		if req.Invoice == nil {
			app.badRequestResponse(w, r, errors.New("invoice details are required for this action"))
			return
		}
		if err = app.validator.Struct(req.Invoice); err != nil {
			app.failedValidationResponse(w, r, err)
			return
		}
		checkout, err = app.service.Invoice(r.Context(), ref, actor, req.Invoice.toDomain())

	default:
		app.badRequestResponse(w, r, errors.New("unsupported checkout action"))
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPlanExists):
			app.conflictResponse(w, r, "This item already has a payment plan")
		default:
			app.checkoutErrorResponse(w, r, err)
		}

		return
	}

	app.writeCheckout(w, r, checkout)
}

func (req *InvoiceRequest) toDomain() *domain.InvoiceDetail {
	return &domain.InvoiceDetail{
		CompanyName: req.CompanyName,
		Address1:    req.Address1,
		Address2:    req.Address2,
		Address3:    req.Address3,
		Town:        req.Town,
		County:      req.County,
		Postcode:    req.Postcode,
		Country:     req.Country,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
	}
}

func (app *application) ChargeHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := app.payableRefParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	checkout, err := app.service.Charge(r.Context(), ref, app.contextActor(r))
	if err != nil {
		app.checkoutErrorResponse(w, r, err)
		return
	}

	app.writeCheckout(w, r, checkout)
}

func (app *application) ChargeDepositHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := app.payableRefParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	checkout, err := app.service.ChargeDeposit(r.Context(), ref, app.contextActor(r))
	if err != nil {
		var invariantErr *domain.InvariantError
		if errors.As(err, &invariantErr) {
			app.conflictResponse(w, r, invariantErr.Msg)
			return
		}

		app.checkoutErrorResponse(w, r, err)
		return
	}

	app.writeCheckout(w, r, checkout)
}

func (app *application) ManualHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := app.payableRefParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	checkout, err := app.service.Manual(r.Context(), ref, app.contextActor(r))
	if err != nil {
		app.checkoutErrorResponse(w, r, err)
		return
	}

	app.writeCheckout(w, r, checkout)
}

func (app *application) ListInstalmentsHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := app.payableRefParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	plan, err := app.payablePlanRepo.GetByRef(r.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	instalments, err := app.instalmentRepo.ListByPlan(r.Context(), plan.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]InstalmentResponse, len(instalments))
	for i, instalment := range instalments {
		resp[i] = InstalmentResponse{
			Id:      instalment.ID,
			Count:   instalment.Count,
			State:   string(instalment.State),
			Deposit: instalment.Deposit,
			Amount:  instalment.Amount,
			Due:     instalment.Due.Format(time.DateOnly),
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// AuditHandler lists every checkout, newest first.
func (app *application) AuditHandler(w http.ResponseWriter, r *http.Request) {
	checkouts, err := app.service.Audit(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]CheckoutResponse, len(checkouts))
	for i := range checkouts {
		resp[i] = toCheckoutResponse(&checkouts[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	checkout, err := app.checkoutRepo.GetById(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := struct {
		CheckoutResponse
		InvoiceLines []string `json:"invoice_lines,omitempty"`
	}{
		CheckoutResponse: toCheckoutResponse(checkout),
	}

	if checkout.Action == domain.ActionInvoice {
		detail, err := app.checkoutRepo.GetInvoiceDetail(r.Context(), checkout.ID)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return
		}
		if detail != nil {
			resp.InvoiceLines = detail.Lines()
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) RetryInstalmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.instalmentRepo.Retry(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.conflictResponse(w, r, "Only a failed instalment can be retried")
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
