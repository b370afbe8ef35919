package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"car-share/internal/dto/request"
	"car-share/internal/dto/response"
	"car-share/internal/usecase"
	"car-share/pkg/payment"
	"car-share/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MockWebhookService struct {
	Payload   []byte
	Signature string
	Err       error
}

func (m *MockWebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	m.Payload = payload
	m.Signature = signature
	return m.Err
}

func (m *MockWebhookService) Reconcile(ctx context.Context, event *payment.Event) error {
	return m.Err
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestWebhookHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"reconciled", nil, http.StatusOK},
		{"bad signature", fmt.Errorf("%w: no valid signature", payment.ErrSignature), http.StatusBadRequest},
		{"malformed event", payment.ErrMalformedEvent, http.StatusBadRequest},
		{"unknown profile", usecase.ErrProfileNotFound, http.StatusNotFound},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockWebhookService{Err: tt.err}
			handler := NewWebhookHandler(service, zap.NewNop())

			body := `{"id":"evt_1","type":"account.updated"}`
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()

			handler.HandleWebhook(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if string(service.Payload) != body {
				t.Errorf("raw payload not passed through: %q", service.Payload)
			}
			if service.Signature != "t=1,v1=abc" {
				t.Errorf("unexpected signature %q", service.Signature)
			}
		})
	}
}

func TestWebhookHandlerRejectsLargeBody(t *testing.T) {
	service := &MockWebhookService{}
	handler := NewWebhookHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(strings.Repeat("x", maxWebhookBody+1)))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if service.Payload != nil {
		t.Error("service must not be called")
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{usecase.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("quote: %w", usecase.ErrInvalidRange), http.StatusBadRequest},
		{usecase.ErrOutsideAvailability, http.StatusBadRequest},
		{usecase.ErrDatesUnavailable, http.StatusBadRequest},
		{usecase.ErrSelfBooking, http.StatusBadRequest},
		{usecase.ErrInvalidOTP, http.StatusBadRequest},
		{usecase.ErrListingNotFound, http.StatusNotFound},
		{usecase.ErrReservationNotFound, http.StatusNotFound},
		{usecase.ErrUserNotFound, http.StatusNotFound},
		{usecase.ErrHostNotPayable, http.StatusConflict},
		{usecase.ErrMissingConnectedAccount, http.StatusConflict},
		{usecase.ErrNotLinked, http.StatusConflict},
		{usecase.ErrEmailTaken, http.StatusConflict},
		{usecase.ErrAlreadyVerified, http.StatusConflict},
		{usecase.ErrInvalidCredentials, http.StatusUnauthorized},
		{usecase.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: account is deactivated", usecase.ErrForbidden), http.StatusForbidden},
		{errors.New("stripe: connection reset"), http.StatusInternalServerError},
		{fmt.Errorf("%w: reservation RES-1", usecase.ErrUnreconciledPayment), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tt.err, "test")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeResponse(t, rec)
			if resp.Status {
				t.Error("expected status false")
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.Message != "Internal server error" {
				t.Errorf("internal detail leaked: %q", resp.Message)
			}
		})
	}
}

type MockListingService struct {
	usecase.ListingService
	SearchReq *request.ListingSearchRequest
	QuoteArgs []string
	PhotoUser uuid.UUID
	PhotoErr  error
}

func (m *MockListingService) DeletePhoto(ctx context.Context, userID uuid.UUID, rawURL string) error {
	m.PhotoUser = userID
	return m.PhotoErr
}

func (m *MockListingService) SearchListings(ctx context.Context, req *request.ListingSearchRequest) (*response.PaginatedResponse[response.ListingResponse], error) {
	m.SearchReq = req
	return response.NewPaginatedResponse[response.ListingResponse](nil, req.Page, req.Limit(), 0), nil
}

func (m *MockListingService) GetQuote(ctx context.Context, id int64, from, to string) (*response.QuoteResponse, error) {
	m.QuoteArgs = []string{fmt.Sprint(id), from, to}
	return &response.QuoteResponse{ListingID: id, From: from, To: to}, nil
}

func TestSearchListingsQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		check      func(t *testing.T, req *request.ListingSearchRequest)
	}{
		{
			name:       "defaults",
			query:      "",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, req *request.ListingSearchRequest) {
				if req.Page != 1 || req.PerPage != 10 || req.Make != nil || req.MinPrice != nil {
					t.Errorf("unexpected request %+v", req)
				}
			},
		},
		{
			name:       "all filters",
			query:      "make=Toyota&year=2020&seating_capacity=5&min_price=10&max_price=99.5&from=2025-06-01&to=2025-06-10&page=2&per_page=500",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, req *request.ListingSearchRequest) {
				if *req.Make != "Toyota" || *req.Year != 2020 || *req.SeatingCapacity != 5 {
					t.Errorf("unexpected filters %+v", req)
				}
				if *req.MinPrice != 10 || *req.MaxPrice != 99.5 {
					t.Errorf("unexpected price range %v-%v", *req.MinPrice, *req.MaxPrice)
				}
				if req.Page != 2 || req.PerPage != 100 {
					t.Errorf("unexpected paging %d/%d", req.Page, req.PerPage)
				}
			},
		},
		{name: "malformed year", query: "year=twenty", wantStatus: http.StatusBadRequest},
		{name: "malformed price", query: "min_price=cheap&max_price=10", wantStatus: http.StatusBadRequest},
		{name: "unknown transmission", query: "transmission=CVT", wantStatus: http.StatusBadRequest},
		{name: "bad date", query: "from=01.06.2025&to=2025-06-10", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockListingService{}
			handler := NewListingHandler(service, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, "/api/cars?"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.SearchListings(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, service.SearchReq)
			}
			if tt.wantStatus != http.StatusOK && service.SearchReq != nil {
				t.Error("service must not be called")
			}
		})
	}
}

func TestGetQuoteRoute(t *testing.T) {
	service := &MockListingService{}
	handler := NewListingHandler(service, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/api/cars/{id}/quote", handler.GetQuote)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/cars/7/quote?from=2025-06-01&to=2025-06-08", http.StatusOK},
		{"/api/cars/abc/quote?from=2025-06-01&to=2025-06-08", http.StatusBadRequest},
		{"/api/cars/7/quote?from=2025-06-01", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if len(service.QuoteArgs) != 3 || service.QuoteArgs[0] != "7" || service.QuoteArgs[2] != "2025-06-08" {
		t.Errorf("unexpected quote args %v", service.QuoteArgs)
	}
}

func TestDeletePhotoHandler(t *testing.T) {
	userID := uuid.New()
	body := `{"url":"https://cdn.example.com/f/front.jpg"}`

	tests := []struct {
		name       string
		userID     uuid.UUID
		serviceErr error
		wantStatus int
	}{
		{"own photo", userID, nil, http.StatusOK},
		{"another host's photo", userID, fmt.Errorf("%w: photo belongs to another listing", usecase.ErrForbidden), http.StatusForbidden},
		{"anonymous", uuid.Nil, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockListingService{PhotoErr: tt.serviceErr}
			handler := NewListingHandler(service, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/photos/delete", strings.NewReader(body))
			req = req.WithContext(utils.SetUserContext(req.Context(), tt.userID))
			rec := httptest.NewRecorder()
			handler.DeletePhoto(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.userID != uuid.Nil && service.PhotoUser != tt.userID {
				t.Errorf("service got user %s, want %s", service.PhotoUser, tt.userID)
			}
		})
	}
}
