package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "mybad/pkg/errors"
	httputil "mybad/pkg/http"
	"mybad/pkg/logger"
	"mybad/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Mock service for testing
type mockReservationService struct {
	bookFunc   func(ctx context.Context, courtID string, req *model.ReservationRequest) (*model.Booking, error)
	cancelFunc func(ctx context.Context, courtID string, req *model.CancellationRequest) error
	listFunc   func(ctx context.Context, courtID, pseudo, status string) ([]*model.Booking, error)
}

func (m *mockReservationService) Book(ctx context.Context, courtID string, req *model.ReservationRequest) (*model.Booking, error) {
	if m.bookFunc != nil {
		return m.bookFunc(ctx, courtID, req)
	}
	return nil, nil
}

func (m *mockReservationService) Cancel(ctx context.Context, courtID string, req *model.CancellationRequest) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, courtID, req)
	}
	return nil
}

func (m *mockReservationService) ListByCourt(ctx context.Context, courtID, pseudo, status string) ([]*model.Booking, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, courtID, pseudo, status)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Service: "test",
	})
}

func newTestRouter(svc *mockReservationService) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func TestCreate_Success(t *testing.T) {
	svc := &mockReservationService{
		bookFunc: func(ctx context.Context, courtID string, req *model.ReservationRequest) (*model.Booking, error) {
			return &model.Booking{
				ID:        "507f1f77bcf86cd799439099",
				UserID:    "507f1f77bcf86cd799439011",
				CourtID:   courtID,
				StartTime: time.Date(2026, 1, 8, 14, 0, 0, 0, time.UTC),
				EndTime:   time.Date(2026, 1, 8, 14, 45, 0, 0, time.UTC),
				Status:    model.StatusConfirmed,
			}, nil
		},
	}
	router := newTestRouter(svc)

	body := `{"pseudo":"alice","start_time":"2026-01-08T14:00","end_time":"2026-01-08T14:45"}`
	req := httptest.NewRequest(http.MethodPost, "/courts/c1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != httputil.ContentTypeHAL {
		t.Errorf("expected %s, got %s", httputil.ContentTypeHAL, ct)
	}

	var resp struct {
		Links  map[string]map[string]string `json:"_links"`
		ID     string                       `json:"id_booking"`
		Status string                       `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "507f1f77bcf86cd799439099" {
		t.Errorf("unexpected booking id: %s", resp.ID)
	}
	if resp.Status != model.StatusConfirmed {
		t.Errorf("unexpected status: %s", resp.Status)
	}
	if resp.Links["self"]["href"] != "/courts/c1/reservations" {
		t.Errorf("unexpected self link: %v", resp.Links)
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	router := newTestRouter(&mockReservationService{})

	req := httptest.NewRequest(http.MethodPost, "/courts/c1/reservations", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreate_ServiceErrorStatusPassthrough(t *testing.T) {
	svc := &mockReservationService{
		bookFunc: func(ctx context.Context, courtID string, req *model.ReservationRequest) (*model.Booking, error) {
			return nil, apperrors.Conflict("We are sorry, this slot is already booked for the requested court")
		},
	}
	router := newTestRouter(svc)

	body := `{"pseudo":"alice","start_time":"2026-01-08T14:00","end_time":"2026-01-08T14:45"}`
	req := httptest.NewRequest(http.MethodPost, "/courts/c1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp httputil.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "already booked") {
		t.Errorf("unexpected error message: %s", resp.Error)
	}
}

func TestList_Success(t *testing.T) {
	svc := &mockReservationService{
		listFunc: func(ctx context.Context, courtID, pseudo, status string) ([]*model.Booking, error) {
			if pseudo != "alice" || status != model.StatusConfirmed {
				t.Errorf("unexpected arguments: pseudo=%s status=%s", pseudo, status)
			}
			return []*model.Booking{
				{ID: "1", CourtID: courtID, Status: model.StatusConfirmed},
				{ID: "2", CourtID: courtID, Status: model.StatusConfirmed},
			}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/courts/c1/reservations/alice?status=confirmed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		NbReservations int `json:"nbReservations"`
		Embedded       struct {
			Reservations []json.RawMessage `json:"reservations"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.NbReservations != 2 || len(resp.Embedded.Reservations) != 2 {
		t.Errorf("expected 2 reservations, got count=%d embedded=%d", resp.NbReservations, len(resp.Embedded.Reservations))
	}
}

func TestCancel_Success(t *testing.T) {
	var gotBookingID string
	svc := &mockReservationService{
		cancelFunc: func(ctx context.Context, courtID string, req *model.CancellationRequest) error {
			gotBookingID = req.BookingID
			return nil
		},
	}
	router := newTestRouter(svc)

	body := `{"pseudo":"alice","bookingId":"507f1f77bcf86cd799439099"}`
	req := httptest.NewRequest(http.MethodDelete, "/courts/c1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotBookingID != "507f1f77bcf86cd799439099" {
		t.Errorf("service received wrong booking id: %s", gotBookingID)
	}
}

func TestCancel_NotFoundStatus(t *testing.T) {
	svc := &mockReservationService{
		cancelFunc: func(ctx context.Context, courtID string, req *model.CancellationRequest) error {
			return apperrors.NotFoundWithID("Booking", req.BookingID)
		},
	}
	router := newTestRouter(svc)

	body := `{"pseudo":"alice","bookingId":"507f1f77bcf86cd799439099"}`
	req := httptest.NewRequest(http.MethodDelete, "/courts/c1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
