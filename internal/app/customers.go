package app

import (
	"net/http"
	"time"

	"github.com/okalli/checkout-service/internal/domain"
)

type CustomerResponse struct {
	Id         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Refresh    bool       `json:"refresh"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toCustomerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		Id:         customer.ID,
		Name:       customer.Name,
		Email:      customer.Email,
		ExpiryDate: customer.ExpiryDate,
		Refresh:    customer.Refresh,
		CreatedAt:  customer.CreatedAt,
	}
}

// ListRefreshCustomersHandler reports the customers whose stored card
// expiry date is flagged for a refresh from the gateway. Operators use it
// to check what the next expiry sweep will pick up.
func (app *application) ListRefreshCustomersHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := app.customerRepo.ListRefresh(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]CustomerResponse, len(customers))
	for i := range customers {
		resp[i] = toCustomerResponse(&customers[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
