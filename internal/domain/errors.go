package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrCannotCharge       = errors.New("cannot charge the card")
	ErrNotRegistered      = errors.New("customer has not registered a card")
	ErrNotAuthorized      = errors.New("payments can only be taken by a member of staff")
	ErrActionNotOffered   = errors.New("action is not offered by this payable")
	ErrPlanInUse          = errors.New("payment plan in use, cannot be updated")
	ErrPlanExists         = errors.New("payable already has a payment plan")
	ErrDuplicateSlug      = errors.New("payment plan slug already exists")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// GatewayError is a card-level failure reported by the payment gateway.
// The diagnostic fields are logged but never shown verbatim to end users.
type GatewayError struct {
	Code        string
	DeclineCode string
	Param       string
	HTTPStatus  int
	Err         error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf(
		"gateway declined: code %q decline_code %q param %q http status '%d'",
		e.Code, e.DeclineCode, e.Param, e.HTTPStatus,
	)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// InvariantError reports corrupt schedule data, such as a payment plan with
// no deposit row. These are operator bugs, not user-facing failures.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return e.Msg
}

func Invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
