package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"coachtrips/internal/dto"
	"coachtrips/internal/model"
)

type fakeLedger struct {
	rows    []model.Booking
	loadErr error
	saveErr error
	saved   map[string]int
}

func (f *fakeLedger) BookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.rows, nil
}

func (f *fakeLedger) UpdateBookingAttendance(ctx context.Context, eventID, bookingID string, attended bool, seatsAttended int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string]int)
	}
	f.saved[bookingID] = seatsAttended
	return nil
}

func loadSheet(t *testing.T, ledger *fakeLedger) *Sheet {
	t.Helper()
	log := zerolog.Nop()
	sheet, err := Load(context.Background(), ledger, "ev1", &log)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return sheet
}

func TestToggleDefaultsSeatsAttendedToBooked(t *testing.T) {
	ledger := &fakeLedger{rows: []model.Booking{{ID: "b1", SeatsBooked: 3}}}
	sheet := loadSheet(t, ledger)

	sheet.Toggle(0)
	row := sheet.Rows()[0]
	if !row.Attended {
		t.Fatal("row should be attended after toggle")
	}
	if row.SeatsAttended == nil || *row.SeatsAttended != 3 {
		t.Fatalf("seats attended should default to booked count, got %v", row.SeatsAttended)
	}
}

func TestToggleOffAndOnRestoresEdit(t *testing.T) {
	ledger := &fakeLedger{rows: []model.Booking{{ID: "b1", SeatsBooked: 3}}}
	sheet := loadSheet(t, ledger)

	sheet.Toggle(0)
	sheet.SetSeatsAttended(0, 2)
	sheet.Toggle(0)
	if sheet.Rows()[0].Attended {
		t.Fatal("row should be unmarked after second toggle")
	}
	sheet.Toggle(0)
	row := sheet.Rows()[0]
	if !row.Attended || row.SeatsAttended == nil || *row.SeatsAttended != 2 {
		t.Fatalf("re-toggling should restore the edited value, got %v", row.SeatsAttended)
	}
}

func TestSetSeatsAttendedBounded(t *testing.T) {
	ledger := &fakeLedger{rows: []model.Booking{{ID: "b1", SeatsBooked: 3}}}
	sheet := loadSheet(t, ledger)
	sheet.Toggle(0)

	sheet.SetSeatsAttended(0, 5)
	if got := *sheet.Rows()[0].SeatsAttended; got != 3 {
		t.Fatalf("edit above the booked count must be ignored, got %d", got)
	}

	sheet.SetSeatsAttended(0, 0)
	if got := *sheet.Rows()[0].SeatsAttended; got != 0 {
		t.Fatalf("zero is a valid attendance count, got %d", got)
	}

	sheet.SetSeatsAttended(0, -1)
	if got := *sheet.Rows()[0].SeatsAttended; got != 0 {
		t.Fatalf("negative edit must be ignored, got %d", got)
	}
}

func TestSaveWritesOnlyAttendedRows(t *testing.T) {
	ledger := &fakeLedger{rows: []model.Booking{
		{ID: "b1", SeatsBooked: 3},
		{ID: "b2", SeatsBooked: 2},
		{ID: "b3", SeatsBooked: 4},
	}}
	sheet := loadSheet(t, ledger)

	sheet.Toggle(0)
	sheet.SetSeatsAttended(0, 2)
	sheet.Toggle(2)

	if err := sheet.Save(context.Background()); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if len(ledger.saved) != 2 {
		t.Fatalf("saved %d rows, want 2", len(ledger.saved))
	}
	if ledger.saved["b1"] != 2 {
		t.Fatalf("b1 saved with %d seats, want 2", ledger.saved["b1"])
	}
	if ledger.saved["b3"] != 4 {
		t.Fatalf("b3 saved with %d seats, want the full booked count 4", ledger.saved["b3"])
	}
	if _, ok := ledger.saved["b2"]; ok {
		t.Fatal("unmarked booking must not be written")
	}
}

func TestLoadAndSaveErrorMessages(t *testing.T) {
	log := zerolog.Nop()
	if _, err := Load(context.Background(), &fakeLedger{loadErr: errors.New("db down")}, "ev1", &log); err == nil || err.Error() != dto.MsgFailedLoadAttendance {
		t.Fatalf("load error = %v, want %q", err, dto.MsgFailedLoadAttendance)
	}

	ledger := &fakeLedger{rows: []model.Booking{{ID: "b1", SeatsBooked: 1}}, saveErr: errors.New("db down")}
	sheet := loadSheet(t, ledger)
	sheet.Toggle(0)
	if err := sheet.Save(context.Background()); err == nil || err.Error() != dto.MsgFailedSaveAttendance {
		t.Fatalf("save error = %v, want %q", err, dto.MsgFailedSaveAttendance)
	}
}
