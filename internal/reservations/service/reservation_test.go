package service

import (
	"context"
	"testing"
	"time"

	reserrors "mybad/internal/reservations/errors"
	"mybad/internal/reservations/validator"
	usererrors "mybad/internal/users/errors"
	"mybad/pkg/clock"
	"mybad/pkg/config"
	mongotx "mybad/pkg/db/mongo"
	apperrors "mybad/pkg/errors"
	"mybad/pkg/logger"
	"mybad/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repositories for testing

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findOverlappingFunc func(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error)
	findByCourtFunc     func(ctx context.Context, courtID string, status string) ([]*model.Booking, error)
	cancelFunc          func(ctx context.Context, bookingID, courtID, userID string) error
	executeTxFunc       func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "507f1f77bcf86cd799439099"
	return nil
}

func (m *mockBookingRepository) FindConfirmedOverlapping(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, courtID, start, end)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindByCourt(ctx context.Context, courtID string, status string) ([]*model.Booking, error) {
	if m.findByCourtFunc != nil {
		return m.findByCourtFunc(ctx, courtID, status)
	}
	return nil, nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, bookingID, courtID, userID string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, bookingID, courtID, userID)
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTxFunc != nil {
		return m.executeTxFunc(ctx, fn)
	}
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockUserResolver struct {
	resolveFunc func(ctx context.Context, pseudo string) (*model.User, error)
}

func (m *mockUserResolver) ResolveUser(ctx context.Context, pseudo string) (*model.User, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, pseudo)
	}
	return &model.User{ID: "507f1f77bcf86cd799439011", Pseudo: pseudo}, nil
}

type mockCourtGetter struct {
	getFunc func(ctx context.Context, id string) (*model.Court, error)
}

func (m *mockCourtGetter) GetByID(ctx context.Context, id string) (*model.Court, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.Court{ID: id, Name: "A", Availability: true}, nil
}

const testCourtID = "507f1f77bcf86cd799439022"

// Reference instant: Wednesday 2026-01-07 12:00 UTC.
var testNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newTestService(repo *mockBookingRepository, locks *mockLockRepository, users *mockUserResolver, courts *mockCourtGetter) ReservationService {
	cfg := testConfig()
	clk := clock.Fixed{Instant: testNow}
	return NewReservationService(
		repo,
		locks,
		users,
		courts,
		validator.NewBookingValidator(clk, cfg.Log),
		clk,
		nil,
		cfg,
	)
}

func validRequest() *model.ReservationRequest {
	return &model.ReservationRequest{
		Pseudo:    "alice",
		StartTime: "2026-01-08T14:00",
		EndTime:   "2026-01-08T14:45",
	}
}

func TestBook_Success(t *testing.T) {
	locks := &mockLockRepository{}
	svc := newTestService(&mockBookingRepository{}, locks, &mockUserResolver{}, &mockCourtGetter{})

	booking, err := svc.Book(context.Background(), testCourtID, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.StatusConfirmed {
		t.Errorf("expected status confirmed, got %s", booking.Status)
	}
	if booking.CourtID != testCourtID {
		t.Errorf("expected court %s, got %s", testCourtID, booking.CourtID)
	}
	if booking.Duration() != 45*time.Minute {
		t.Errorf("expected 45m slot, got %v", booking.Duration())
	}
	if booking.BookingDate != "2026-01-07" {
		t.Errorf("expected booking date 2026-01-07, got %s", booking.BookingDate)
	}
	if len(locks.deleted) != 1 {
		t.Errorf("expected court lock to be released once, got %d releases", len(locks.deleted))
	}
}

func TestBook_SlotAlreadyTaken(t *testing.T) {
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error) {
			return []*model.Booking{{ID: "existing", StartTime: start, EndTime: end, Status: model.StatusConfirmed}}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, &mockUserResolver{}, &mockCourtGetter{})

	_, err := svc.Book(context.Background(), testCourtID, validRequest())
	if err == nil {
		t.Fatal("expected conflict, got nil")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if len(locks.deleted) != 1 {
		t.Errorf("expected court lock to be released on conflict, got %d releases", len(locks.deleted))
	}
}

// Back-to-back slots share a boundary instant but do not overlap under
// half-open interval semantics.
func TestBook_AdjacentSlotDoesNotConflict(t *testing.T) {
	existing := &model.Booking{
		ID:        "existing",
		CourtID:   testCourtID,
		StartTime: time.Date(2026, 1, 8, 13, 15, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 1, 8, 14, 0, 0, 0, time.UTC),
		Status:    model.StatusConfirmed,
	}
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error) {
			if existing.Overlaps(start, end) {
				return []*model.Booking{existing}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})

	if _, err := svc.Book(context.Background(), testCourtID, validRequest()); err != nil {
		t.Fatalf("adjacent slot should not conflict: %v", err)
	}
}

func TestBook_SlotLockHeld(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		},
	}
	svc := newTestService(&mockBookingRepository{}, locks, &mockUserResolver{}, &mockCourtGetter{})

	_, err := svc.Book(context.Background(), testCourtID, validRequest())
	if err == nil {
		t.Fatal("expected conflict, got nil")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestBook_UnknownUser(t *testing.T) {
	users := &mockUserResolver{
		resolveFunc: func(ctx context.Context, pseudo string) (*model.User, error) {
			return nil, usererrors.ErrNotFound
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, users, &mockCourtGetter{})

	_, err := svc.Book(context.Background(), testCourtID, validRequest())
	if err == nil {
		t.Fatal("expected forbidden, got nil")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestBook_UnavailableCourt(t *testing.T) {
	courts := &mockCourtGetter{
		getFunc: func(ctx context.Context, id string) (*model.Court, error) {
			return &model.Court{
				ID:               id,
				Name:             "B",
				Availability:     false,
				UnavailableFrom:  "2026-01-07",
				UnavailableUntil: "2026-01-09",
			}, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockUserResolver{}, courts)

	_, err := svc.Book(context.Background(), testCourtID, validRequest())
	if err == nil {
		t.Fatal("expected conflict, got nil")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestBook_RejectsSundaySlot(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})

	req := &model.ReservationRequest{
		Pseudo:    "alice",
		StartTime: "2026-01-11T14:00",
		EndTime:   "2026-01-11T14:45",
	}
	_, err := svc.Book(context.Background(), testCourtID, req)
	if err == nil {
		t.Fatal("expected rejection, got nil")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestCancel_Success(t *testing.T) {
	var gotUserID string
	repo := &mockBookingRepository{
		cancelFunc: func(ctx context.Context, bookingID, courtID, userID string) error {
			gotUserID = userID
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})

	req := &model.CancellationRequest{Pseudo: "alice", BookingID: "507f1f77bcf86cd799439099"}
	if err := svc.Cancel(context.Background(), testCourtID, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUserID != "507f1f77bcf86cd799439011" {
		t.Errorf("cancel ran with wrong user id: %s", gotUserID)
	}
}

func TestCancel_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"unknown booking", reserrors.ErrNotFound, apperrors.CodeNotFound},
		{"not the owner", reserrors.ErrNotOwner, apperrors.CodeForbidden},
		{"already cancelled", reserrors.ErrAlreadyCancelled, apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				cancelFunc: func(ctx context.Context, bookingID, courtID, userID string) error {
					return tt.repoErr
				},
			}
			svc := newTestService(repo, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})

			req := &model.CancellationRequest{Pseudo: "alice", BookingID: "507f1f77bcf86cd799439099"}
			err := svc.Cancel(context.Background(), testCourtID, req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if appErr := apperrors.AsAppError(err); appErr.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestListByCourt(t *testing.T) {
	aliceID := "507f1f77bcf86cd799439011"
	bobID := "507f1f77bcf86cd799439033"

	ledger := []*model.Booking{
		{ID: "1", CourtID: testCourtID, UserID: aliceID, Status: model.StatusConfirmed},
		{ID: "2", CourtID: testCourtID, UserID: bobID, Status: model.StatusConfirmed},
		{ID: "3", CourtID: testCourtID, UserID: aliceID, Status: model.StatusCancelled},
	}

	repo := &mockBookingRepository{
		findByCourtFunc: func(ctx context.Context, courtID string, status string) ([]*model.Booking, error) {
			var out []*model.Booking
			for _, b := range ledger {
				if status == "" || b.Status == status {
					out = append(out, b)
				}
			}
			return out, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})

	t.Run("returns only the caller's bookings", func(t *testing.T) {
		bookings, err := svc.ListByCourt(context.Background(), testCourtID, "alice", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(bookings) != 2 {
			t.Fatalf("expected 2 bookings, got %d", len(bookings))
		}
		for _, b := range bookings {
			if b.UserID != aliceID {
				t.Errorf("foreign booking leaked: %s", b.ID)
			}
		}
	})

	t.Run("status filter applies before ownership", func(t *testing.T) {
		bookings, err := svc.ListByCourt(context.Background(), testCourtID, "alice", model.StatusCancelled)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(bookings) != 1 || bookings[0].ID != "3" {
			t.Errorf("expected only cancelled booking 3, got %v", bookings)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := svc.ListByCourt(context.Background(), testCourtID, "alice", "pending")
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
			t.Errorf("expected %s, got %v", apperrors.CodeInvalidInput, err)
		}
	})
}

func TestListByCourt_EmptyAndForeign(t *testing.T) {
	t.Run("no bookings at all", func(t *testing.T) {
		svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})
		_, err := svc.ListByCourt(context.Background(), testCourtID, "alice", "")
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
			t.Errorf("expected %s, got %v", apperrors.CodeNotFound, err)
		}
	})

	t.Run("bookings exist but none owned", func(t *testing.T) {
		repo := &mockBookingRepository{
			findByCourtFunc: func(ctx context.Context, courtID string, status string) ([]*model.Booking, error) {
				return []*model.Booking{{ID: "1", UserID: "507f1f77bcf86cd799439033"}}, nil
			},
		}
		svc := newTestService(repo, &mockLockRepository{}, &mockUserResolver{}, &mockCourtGetter{})
		_, err := svc.ListByCourt(context.Background(), testCourtID, "alice", "")
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
			t.Errorf("expected %s, got %v", apperrors.CodeForbidden, err)
		}
	})
}

// Two requests for the same slot race on the advisory lock: only the first
// insert wins, the second sees a duplicate key and backs off.
func TestBook_ConcurrentSameSlot(t *testing.T) {
	held := make(map[string]bool)
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			if held[lock.ID] {
				return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
			}
			held[lock.ID] = true
			return lock, nil
		},
	}

	var ledger []*model.Booking
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error) {
			var out []*model.Booking
			for _, b := range ledger {
				if b.Overlaps(start, end) {
					out = append(out, b)
				}
			}
			return out, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "507f1f77bcf86cd799439099"
			ledger = append(ledger, booking)
			return nil
		},
	}
	svc := newTestService(repo, locks, &mockUserResolver{}, &mockCourtGetter{})

	if _, err := svc.Book(context.Background(), testCourtID, validRequest()); err != nil {
		t.Fatalf("first booking should succeed: %v", err)
	}

	// The lock is still held: simulates the second request arriving while
	// the first transaction is in flight.
	_, err := svc.Book(context.Background(), testCourtID, validRequest())
	if err == nil {
		t.Fatal("expected second concurrent booking to fail")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

// Overlapping slots with different start minutes must contend for the
// same court lock. A per-slot key would hand each request its own lock
// and let both transactions pass the overlap check on a clean snapshot.
func TestBook_ConcurrentOverlappingSlots(t *testing.T) {
	held := make(map[string]bool)
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			if held[lock.ID] {
				return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
			}
			held[lock.ID] = true
			return lock, nil
		},
	}

	var ledger []*model.Booking
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, courtID string, start, end time.Time) ([]*model.Booking, error) {
			var out []*model.Booking
			for _, b := range ledger {
				if b.Overlaps(start, end) {
					out = append(out, b)
				}
			}
			return out, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "507f1f77bcf86cd799439099"
			ledger = append(ledger, booking)
			return nil
		},
	}
	svc := newTestService(repo, locks, &mockUserResolver{}, &mockCourtGetter{})

	first := &model.ReservationRequest{
		Pseudo:    "alice",
		StartTime: "2026-01-08T14:00",
		EndTime:   "2026-01-08T14:45",
	}
	if _, err := svc.Book(context.Background(), testCourtID, first); err != nil {
		t.Fatalf("first booking should succeed: %v", err)
	}

	// Court lock still held; the second slot starts 30 minutes into the
	// first, so its key would differ under per-slot locking.
	second := &model.ReservationRequest{
		Pseudo:    "bob",
		StartTime: "2026-01-08T14:30",
		EndTime:   "2026-01-08T15:15",
	}
	_, err := svc.Book(context.Background(), testCourtID, second)
	if err == nil {
		t.Fatal("expected overlapping concurrent booking to fail")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if len(ledger) != 1 {
		t.Errorf("expected a single confirmed booking, got %d", len(ledger))
	}
}

// The deferred lock release runs after the transaction, by which time the
// request may already be cancelled. The release must still go through or
// the court stays locked until the TTL sweep.
func TestBook_LockReleasedAfterContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &mockBookingRepository{
		executeTxFunc: func(ctx context.Context, fn mongotx.TransactionFunc) error {
			cancel()
			return fn(nil)
		},
	}
	var releaseCtxErr error
	released := false
	locks := &mockLockRepository{
		deleteFunc: func(ctx context.Context, lockID string) error {
			released = true
			releaseCtxErr = ctx.Err()
			return nil
		},
	}
	svc := newTestService(repo, locks, &mockUserResolver{}, &mockCourtGetter{})

	if _, err := svc.Book(ctx, testCourtID, validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Fatal("expected the court lock to be released")
	}
	if releaseCtxErr != nil {
		t.Errorf("release ran with a dead context: %v", releaseCtxErr)
	}
}
