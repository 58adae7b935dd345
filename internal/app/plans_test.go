package app

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PlanHandlersTestSuite struct {
	suite.Suite
	app      *application
	planRepo *mocks.MockPaymentPlanRepo
}

func (s *PlanHandlersTestSuite) SetupTest() {
	s.planRepo = &mocks.MockPaymentPlanRepo{}

	s.app = newTestApplication(func(a *application) {
		a.planRepo = s.planRepo
	})
	s.app.service = buildTestService(s.app, &mocks.MockGateway{})
}

func TestPlanHandlersSuite(t *testing.T) {
	suite.Run(t, new(PlanHandlersTestSuite))
}

func defaultPlan() *domain.PaymentPlan {
	return &domain.PaymentPlan{
		ID:       2,
		Name:     "Default",
		Slug:     "default",
		Deposit:  25,
		Count:    3,
		Interval: 1,
	}
}

func (s *PlanHandlersTestSuite) TestCreatePlanHandler() {
	tests := []struct {
		name           string
		body           any
		staff          bool
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should fail when the caller is not staff",
			body:           PlanRequest{Name: "Default", Slug: "default", Deposit: 25, Count: 3, Interval: 1},
			staff:          false,
			wantStatus:     http.StatusForbidden,
			wantErrMessage: "You are not allowed to perform this action",
		},
		{
			name:           "should fail when the name is missing",
			body:           PlanRequest{Slug: "default", Deposit: 25, Count: 3, Interval: 1},
			staff:          true,
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:           "should fail when the slug is not a slug",
			body:           PlanRequest{Name: "Default", Slug: "Not A Slug", Deposit: 25, Count: 3, Interval: 1},
			staff:          true,
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must contain only lowercase letters, numbers and hyphens",
		},
		{
			name:  "should fail when the slug already exists",
			body:  PlanRequest{Name: "Default", Slug: "default", Deposit: 25, Count: 3, Interval: 1},
			staff: true,
			setupMocks: func() {
				s.planRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PaymentPlan")).
					Return(domain.ErrDuplicateSlug)
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: "A payment plan with this slug already exists",
		},
		{
			name:  "should create a payment plan",
			body:  PlanRequest{Name: "Default", Slug: "default", Deposit: 25, Count: 3, Interval: 1},
			staff: true,
			setupMocks: func() {
				s.planRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PaymentPlan")).
					Run(func(args mock.Arguments) {
						args.Get(1).(*domain.PaymentPlan).ID = 2
					}).
					Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}
			defer s.planRepo.AssertExpectations(s.T())

			w, r := executeRequest(s.T(), http.MethodPost, "/plans", tt.body)
			r = setupTestSession(s.T(), s.app, r, 1, "staff@example.com", tt.staff)

			wrapHandler(s.app, s.app.CreatePlanHandler, true).ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				var resp PlanResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
				s.Equal("default", resp.Slug)
				s.Equal(25, resp.Deposit)
			}

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}

func (s *PlanHandlersTestSuite) TestGetPlanHandler() {
	tests := []struct {
		name           string
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name: "should fail when the plan does not exist",
			setupMocks: func() {
				s.planRepo.On("GetBySlug", mock.Anything, "default").
					Return(nil, domain.ErrRecordNotFound)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: "The requested resource not found",
		},
		{
			name: "should return the plan",
			setupMocks: func() {
				s.planRepo.On("GetBySlug", mock.Anything, "default").Return(defaultPlan(), nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.setupMocks()
			defer s.planRepo.AssertExpectations(s.T())

			w, r := executeRequest(s.T(), http.MethodGet, "/plans/default", nil)
			r = withURLParams(r, map[string]string{"slug": "default"})

			wrapHandler(s.app, s.app.GetPlanHandler, false).ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var resp PlanResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
				s.Equal("Default", resp.Name)
			}

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}

func (s *PlanHandlersTestSuite) TestUpdatePlanHandler() {
	s.planRepo.On("GetBySlug", mock.Anything, "default").Return(defaultPlan(), nil)
	s.planRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.PaymentPlan")).
		Return(domain.ErrPlanInUse)

	body := PlanRequest{Name: "Default", Slug: "default", Deposit: 30, Count: 3, Interval: 1}
	w, r := executeRequest(s.T(), http.MethodPut, "/plans/default", body)
	r = withURLParams(r, map[string]string{"slug": "default"})
	r = setupTestSession(s.T(), s.app, r, 1, "staff@example.com", true)

	wrapHandler(s.app, s.app.UpdatePlanHandler, true).ServeHTTP(w, r)

	s.Equal(http.StatusConflict, w.Code)
	checkErrorResponse(s.T(), w, http.StatusConflict, "This payment plan is in use and can no longer be changed")
	s.planRepo.AssertExpectations(s.T())
}

func (s *PlanHandlersTestSuite) TestDeletePlanHandler() {
	s.planRepo.On("Delete", mock.Anything, "default").Return(nil)

	w, r := executeRequest(s.T(), http.MethodDelete, "/plans/default", nil)
	r = withURLParams(r, map[string]string{"slug": "default"})
	r = setupTestSession(s.T(), s.app, r, 1, "staff@example.com", true)

	wrapHandler(s.app, s.app.DeletePlanHandler, true).ServeHTTP(w, r)

	s.Equal(http.StatusNoContent, w.Code)
	s.planRepo.AssertExpectations(s.T())
}

func (s *PlanHandlersTestSuite) TestListPlansHandler() {
	s.planRepo.On("Current", mock.Anything).Return([]domain.PaymentPlan{*defaultPlan()}, nil)

	w, r := executeRequest(s.T(), http.MethodGet, "/plans", nil)

	wrapHandler(s.app, s.app.ListPlansHandler, false).ServeHTTP(w, r)

	s.Equal(http.StatusOK, w.Code)

	var resp []PlanResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Require().Len(resp, 1)
	s.Equal("default", resp[0].Slug)
}

func (s *PlanHandlersTestSuite) TestPlanExampleHandler() {
	tests := []struct {
		name           string
		url            string
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
		wantDues       []string
	}{
		{
			name:           "should fail without a total",
			url:            "/plans/default/example",
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid total parameter",
		},
		{
			name:           "should fail with a malformed due date",
			url:            "/plans/default/example?total=100.00&due=soon",
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid due parameter",
		},
		{
			name: "should show the schedule with the deposit due today",
			url:  "/plans/default/example?total=100.00",
			setupMocks: func() {
				s.planRepo.On("GetBySlug", mock.Anything, "default").Return(defaultPlan(), nil)
			},
			wantStatus: http.StatusOK,
			wantDues:   []string{"2024-03-10", "2024-04-01", "2024-05-01", "2024-06-01"},
		},
		{
			name: "should move the deposit to the requested due date",
			url:  "/plans/default/example?total=100.00&due=2024-07-20",
			setupMocks: func() {
				s.planRepo.On("GetBySlug", mock.Anything, "default").Return(defaultPlan(), nil)
			},
			wantStatus: http.StatusOK,
			// past the 15th, the first instalment skips a month
			wantDues: []string{"2024-07-20", "2024-09-01", "2024-10-01", "2024-11-01"},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}
			defer s.planRepo.AssertExpectations(s.T())

			w, r := executeRequest(s.T(), http.MethodGet, tt.url, nil)
			r = withURLParams(r, map[string]string{"slug": "default"})

			wrapHandler(s.app, s.app.PlanExampleHandler, false).ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp []ScheduledPaymentResponse
			s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
			s.Require().Len(resp, len(tt.wantDues))

			for i, due := range tt.wantDues {
				s.Equal(due, resp[i].Due)
				s.True(resp[i].Amount.Equal(decimal.NewFromFloat(25.00)))
			}
		})
	}
}
