package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/ledger"
	"github.com/shopspring/decimal"
)

type LedgerEntryRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Email       string          `json:"email" validate:"required,email"`
	Description string          `json:"description" validate:"required,max=200"`
	Total       decimal.Decimal `json:"total" validate:"required"`
}

type LedgerEntryResponse struct {
	Id          int64           `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Description string          `json:"description"`
	Total       decimal.Decimal `json:"total"`
	State       string          `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toLedgerEntryResponse(entry *ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		Id:          entry.ID,
		Name:        entry.Name,
		Email:       entry.Email,
		Description: entry.Description,
		Total:       entry.Total,
		State:       string(entry.State),
		CreatedAt:   entry.CreatedAt,
	}
}

func (app *application) CreateLedgerEntryHandler(w http.ResponseWriter, r *http.Request) {
	var req LedgerEntryRequest

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

	if req.Total.IsNegative() {
		app.badRequestResponse(w, r, errors.New("total must not be negative"))
		return
	}

	entry := &ledger.Entry{
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
		Total:       req.Total,
		State:       domain.CheckoutStatePending,
	}

	err = app.ledgerRepo.Create(r.Context(), entry)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toLedgerEntryResponse(entry), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetLedgerEntryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	entry, err := app.ledgerRepo.GetById(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toLedgerEntryResponse(entry), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
