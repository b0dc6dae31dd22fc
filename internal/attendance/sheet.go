// Package attendance implements the post-event reconciliation sheet: an
// organizer marks which bookings attended and how many of their booked seats
// showed up, bounded per booking by its seat count.
package attendance

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"coachtrips/internal/dto"
	"coachtrips/internal/model"
)

type Ledger interface {
	BookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error)
	UpdateBookingAttendance(ctx context.Context, eventID, bookingID string, attended bool, seatsAttended int) error
}

// Sheet holds the in-progress attendance edits for one event's bookings.
// Nothing is persisted until Save.
type Sheet struct {
	eventID string
	ledger  Ledger
	rows    []model.Booking
	log     *zerolog.Logger
}

// Load fetches the event's active bookings. Bookings persisted before
// attendance existed come back with attended false and seats attended unset.
func Load(ctx context.Context, ledger Ledger, eventID string, log *zerolog.Logger) (*Sheet, error) {
	rows, err := ledger.BookingsByEvent(ctx, eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("failed to load bookings for attendance")
		return nil, errors.New(dto.MsgFailedLoadAttendance)
	}
	return &Sheet{eventID: eventID, ledger: ledger, rows: rows, log: log}, nil
}

// Rows returns the sheet's bookings with their pending edits. An empty sheet
// is a valid state, not an error.
func (s *Sheet) Rows() []model.Booking {
	return s.rows
}

// Toggle flips attendance for the booking at index i. On the transition to
// attended, an unset or zero seats-attended defaults to the booking's full
// seat count; toggling off keeps the value so re-toggling restores it.
func (s *Sheet) Toggle(i int) {
	if i < 0 || i >= len(s.rows) {
		return
	}
	row := &s.rows[i]
	row.Attended = !row.Attended
	if row.Attended && (row.SeatsAttended == nil || *row.SeatsAttended == 0) {
		v := row.SeatsBooked
		row.SeatsAttended = &v
	}
}

// SetSeatsAttended records how many seats showed up for the booking at
// index i. An edit that would exceed the booking's seat count is silently
// ignored; zero is accepted.
func (s *Sheet) SetSeatsAttended(i, v int) {
	if i < 0 || i >= len(s.rows) {
		return
	}
	row := &s.rows[i]
	if v < 0 || v > row.SeatsBooked {
		return
	}
	row.SeatsAttended = &v
}

// Save persists every booking currently marked attended as
// {attended: true, seatsAttended or seatsBooked}. Bookings not marked
// attended are left untouched.
func (s *Sheet) Save(ctx context.Context) error {
	for _, row := range s.rows {
		if !row.Attended {
			continue
		}
		seatsAttended := row.SeatsBooked
		if row.SeatsAttended != nil {
			seatsAttended = *row.SeatsAttended
		}
		if err := s.ledger.UpdateBookingAttendance(ctx, s.eventID, row.ID, true, seatsAttended); err != nil {
			s.log.Error().Err(err).Str("booking_id", row.ID).Msg("failed to save attendance")
			return errors.New(dto.MsgFailedSaveAttendance)
		}
	}
	return nil
}
