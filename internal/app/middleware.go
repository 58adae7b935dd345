package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okalli/checkout-service/internal/domain"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// resolveActor builds the acting identity from the session. Requests
// without a session run as the anonymous actor; checkout operations decide
// for themselves what anonymous callers may do.
func (app *application) resolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{}

		if userId := app.sessionManager.GetInt(r.Context(), SessionKeyUserId.String()); userId != 0 {
			id := int64(userId)
			actor.ID = &id
			actor.Email = app.sessionManager.GetString(r.Context(), SessionKeyEmail.String())
			actor.Staff = app.sessionManager.GetBool(r.Context(), SessionKeyStaff.String())
		}

		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := app.contextActor(r)
		if !actor.Staff {
			app.forbiddenResponse(w, r, "You are not allowed to perform this action")
			return
		}

		next.ServeHTTP(w, r)
	})
}
