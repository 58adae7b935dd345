package app

import (
	"net/http"

	"github.com/okalli/checkout-service/internal/domain"
)

type sessionKey string

const (
	SessionKeyUserId = sessionKey("userID")
	SessionKeyEmail  = sessionKey("email")
	SessionKeyStaff  = sessionKey("staff")

	contextKeyActor = sessionKey("actor")
)

func (s sessionKey) String() string {
	return string(s)
}

func (app *application) contextActor(r *http.Request) domain.Actor {
	actor, ok := r.Context().Value(contextKeyActor).(domain.Actor)
	if !ok {
		panic("missing actor from context")
	}

	return actor
}
