package app

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CustomerHandlersTestSuite struct {
	suite.Suite
	app          *application
	customerRepo *mocks.MockCustomerRepo
}

func (s *CustomerHandlersTestSuite) SetupTest() {
	s.customerRepo = &mocks.MockCustomerRepo{}

	s.app = newTestApplication(func(a *application) {
		a.customerRepo = s.customerRepo
	})
}

func TestCustomerHandlersSuite(t *testing.T) {
	suite.Run(t, new(CustomerHandlersTestSuite))
}

func (s *CustomerHandlersTestSuite) TestListRefreshCustomersHandler() {
	tests := []struct {
		name           string
		staff          bool
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
		wantEmails     []string
	}{
		{
			name:           "should fail when the caller is not staff",
			staff:          false,
			wantStatus:     http.StatusForbidden,
			wantErrMessage: "You are not allowed to perform this action",
		},
		{
			name:  "should list the customers flagged for a refresh",
			staff: true,
			setupMocks: func() {
				s.customerRepo.On("ListRefresh", mock.Anything).Return([]domain.Customer{
					{ID: 1, Name: "Alice Smith", Email: "alice@example.com", Refresh: true},
					{ID: 2, Name: "Bob Jones", Email: "bob@example.com", Refresh: true},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantEmails: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:  "should return an empty list when nothing is flagged",
			staff: true,
			setupMocks: func() {
				s.customerRepo.On("ListRefresh", mock.Anything).Return([]domain.Customer{}, nil)
			},
			wantStatus: http.StatusOK,
			wantEmails: []string{},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodGet, "/customers/refresh", nil)
			r = setupTestSession(s.T(), s.app, r, 1, "staff@example.com", tt.staff)

			wrapHandler(s.app, s.app.ListRefreshCustomersHandler, true).ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp []CustomerResponse
			s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
			s.Require().Len(resp, len(tt.wantEmails))
			for i, email := range tt.wantEmails {
				s.Equal(email, resp[i].Email)
			}
		})
	}
}
