package consumerWorker

import (
	"context"
	"encoding/json"
	"testing"

	"coachtrips/internal/mailer"
	"coachtrips/internal/model"
	"coachtrips/internal/rabbit"
	"coachtrips/internal/repo"
)

// stubRepo satisfies repo.Repository; only the booking and event reads the
// reminder path touches carry behavior.
type stubRepo struct {
	booking    *model.Booking
	bookingErr error
	event      *model.TravelEvent
	eventCalls int
}

func (s *stubRepo) GetBooking(ctx context.Context, eventID, bookingID string) (*model.Booking, error) {
	if s.bookingErr != nil {
		return nil, s.bookingErr
	}
	return s.booking, nil
}

func (s *stubRepo) GetEventByID(ctx context.Context, id string) (*model.TravelEvent, error) {
	s.eventCalls++
	return s.event, nil
}

func (s *stubRepo) CreateEvent(ctx context.Context, e *model.TravelEvent) (string, error) {
	return "", nil
}
func (s *stubRepo) UpdateEvent(ctx context.Context, id string, fields map[string]any) error {
	return nil
}
func (s *stubRepo) CancelEvent(ctx context.Context, id string) error { return nil }
func (s *stubRepo) GetAllEvents(ctx context.Context) ([]model.TravelEvent, error) {
	return nil, nil
}
func (s *stubRepo) EventCapacity(ctx context.Context, eventID string) (int, error) { return 0, nil }
func (s *stubRepo) SeatsBooked(ctx context.Context, eventID string) (int, error)   { return 0, nil }
func (s *stubRepo) CreateBookingTx(ctx context.Context, eventID string, b *model.Booking) (string, error) {
	return "", nil
}
func (s *stubRepo) UpdateBookingPaymentStatus(ctx context.Context, eventID, bookingID string, paid bool) error {
	return nil
}
func (s *stubRepo) CancelBookingTx(ctx context.Context, eventID, bookingID string) error { return nil }
func (s *stubRepo) BookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	return nil, nil
}
func (s *stubRepo) CancellationsByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	return nil, nil
}
func (s *stubRepo) BookingsByUser(ctx context.Context, bookerUID string) ([]model.UserBookingWithEvent, error) {
	return nil, nil
}
func (s *stubRepo) UpdateBookingAttendance(ctx context.Context, eventID, bookingID string, attended bool, seatsAttended int) error {
	return nil
}
func (s *stubRepo) MigrateUp(migrationsDir string) error   { return nil }
func (s *stubRepo) MigrateDown(migrationsDir string) error { return nil }

func reminderBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(rabbit.PaymentReminderMessage{EventID: "ev1", BookingID: "bk1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	r := NewReader(nil, &stubRepo{}, mailer.Config{})

	// A payload that can never parse must be acked away, not requeued.
	if err := r.handleMessage(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed payload returned %v, want nil", err)
	}
}

func TestHandleMessageDropsWhenBookingGone(t *testing.T) {
	store := &stubRepo{bookingErr: repo.ErrBookingNotFound}
	r := NewReader(nil, store, mailer.Config{})

	if err := r.handleMessage(context.Background(), reminderBody(t)); err != nil {
		t.Fatalf("missing booking returned %v, want nil", err)
	}
	if store.eventCalls != 0 {
		t.Fatal("missing booking must not load the event")
	}
}

func TestHandleMessageSkipsSettledBookings(t *testing.T) {
	cases := []struct {
		name    string
		booking *model.Booking
	}{
		{"paid", &model.Booking{ID: "bk1", Payed: true, Status: model.StatusActive}},
		{"cancelled", &model.Booking{ID: "bk1", Status: model.StatusCancelled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubRepo{booking: tc.booking}
			r := NewReader(nil, store, mailer.Config{})

			if err := r.handleMessage(context.Background(), reminderBody(t)); err != nil {
				t.Fatalf("settled booking returned %v, want nil", err)
			}
			if store.eventCalls != 0 {
				t.Fatal("settled booking must not load the event")
			}
		})
	}
}

func TestHandleMessageRemindsUnpaidBooking(t *testing.T) {
	store := &stubRepo{
		booking: &model.Booking{ID: "bk1", Status: model.StatusActive},
		event:   &model.TravelEvent{ID: "ev1", Title: "Lakes Day Trip"},
	}
	r := NewReader(nil, store, mailer.Config{})

	if err := r.handleMessage(context.Background(), reminderBody(t)); err != nil {
		t.Fatalf("unpaid booking returned %v, want nil", err)
	}
	if store.eventCalls != 1 {
		t.Fatalf("event loaded %d times, want 1", store.eventCalls)
	}
}
