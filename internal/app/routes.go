package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware("checkout-api", otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(app.resolveActor)

	r.Get("/health", app.GetHealth)

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", app.ListPlansHandler)
		r.With(app.requireStaff).Post("/", app.CreatePlanHandler)

		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", app.GetPlanHandler)
			r.Get("/example", app.PlanExampleHandler)
			r.With(app.requireStaff).Put("/", app.UpdatePlanHandler)
			r.With(app.requireStaff).Delete("/", app.DeletePlanHandler)
		})
	})

	r.With(app.requireStaff).Route("/payables/{type}/{id}", func(r chi.Router) {
		r.Post("/charge", app.ChargeHandler)
		r.Post("/deposit/charge", app.ChargeDepositHandler)
		r.Post("/manual", app.ManualHandler)
		r.Get("/instalments", app.ListInstalmentsHandler)
	})

	r.Route("/checkouts", func(r chi.Router) {
		r.Post("/", app.CreateCheckoutHandler)
		r.With(app.requireStaff).Get("/", app.AuditHandler)
		r.With(app.requireStaff).Get("/{id}", app.GetCheckoutHandler)
	})

	r.With(app.requireStaff).Post("/instalments/{id}/retry", app.RetryInstalmentHandler)

	r.With(app.requireStaff).Get("/customers/refresh", app.ListRefreshCustomersHandler)

	r.Route("/ledger", func(r chi.Router) {
		r.With(app.requireStaff).Post("/", app.CreateLedgerEntryHandler)
		r.Get("/{id}", app.GetLedgerEntryHandler)
	})

	return r
}
