package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okalli/checkout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type PlanRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Slug     string `json:"slug" validate:"required,slug,max=100"`
	Deposit  int    `json:"deposit" validate:"gte=1,lte=100"`
	Count    int    `json:"count" validate:"gte=1"`
	Interval int    `json:"interval" validate:"gte=1"`
}

type PlanResponse struct {
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Deposit   int       `json:"deposit"`
	Count     int       `json:"count"`
	Interval  int       `json:"interval"`
	CreatedAt time.Time `json:"created_at"`
}

type ScheduledPaymentResponse struct {
	Due    string          `json:"due"`
	Amount decimal.Decimal `json:"amount"`
}

func toPlanResponse(plan *domain.PaymentPlan) PlanResponse {
	return PlanResponse{
		Name:      plan.Name,
		Slug:      plan.Slug,
		Deposit:   plan.Deposit,
		Count:     plan.Count,
		Interval:  plan.Interval,
		CreatedAt: plan.CreatedAt,
	}
}

func toScheduleResponse(schedule []domain.ScheduledPayment) []ScheduledPaymentResponse {
	resp := make([]ScheduledPaymentResponse, len(schedule))
	for i, payment := range schedule {
		resp[i] = ScheduledPaymentResponse{
			Due:    payment.Due.Format(time.DateOnly),
			Amount: payment.Amount,
		}
	}
	return resp
}

func (app *application) CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest

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

	plan := &domain.PaymentPlan{
		Name:     req.Name,
		Slug:     req.Slug,
		Deposit:  req.Deposit,
		Count:    req.Count,
		Interval: req.Interval,
	}

	err = app.planRepo.Create(r.Context(), plan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateSlug):
			app.conflictResponse(w, r, "A payment plan with this slug already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusCreated, toPlanResponse(plan), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := app.planRepo.Current(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]PlanResponse, len(plans))
	for i := range plans {
		resp[i] = toPlanResponse(&plans[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := app.planRepo.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toPlanResponse(plan), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// PlanExampleHandler shows the schedule a plan would produce for a given
// total, deposit first, so a customer can see the numbers before they
// commit. An optional due parameter moves the deposit date off today.
func (app *application) PlanExampleHandler(w http.ResponseWriter, r *http.Request) {
	total, err := decimal.NewFromString(r.URL.Query().Get("total"))
	if err != nil || total.IsNegative() {
		app.badRequestResponse(w, r, errors.New("invalid total parameter"))
		return
	}

	var due time.Time
	if param := r.URL.Query().Get("due"); param != "" {
		due, err = time.Parse(time.DateOnly, param)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid due parameter"))
			return
		}
	}

	schedule, err := app.service.PlanExample(r.Context(), chi.URLParam(r, "slug"), total, due)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toScheduleResponse(schedule), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) UpdatePlanHandler(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest

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

	plan, err := app.planRepo.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	plan.Name = req.Name
	plan.Slug = req.Slug
	plan.Deposit = req.Deposit
	plan.Count = req.Count
	plan.Interval = req.Interval

	err = app.planRepo.Update(r.Context(), plan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPlanInUse):
			app.conflictResponse(w, r, "This payment plan is in use and can no longer be changed")
		case errors.Is(err, domain.ErrDuplicateSlug):
			app.conflictResponse(w, r, "A payment plan with this slug already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toPlanResponse(plan), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) DeletePlanHandler(w http.ResponseWriter, r *http.Request) {
	err := app.planRepo.Delete(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
