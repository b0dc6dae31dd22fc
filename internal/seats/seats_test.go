package seats

import (
	"context"
	"errors"
	"testing"
)

type fakeLedger struct {
	capacity int
	booked   int
	err      error
	reads    int
}

func (f *fakeLedger) EventCapacity(ctx context.Context, eventID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.capacity, nil
}

func (f *fakeLedger) SeatsBooked(ctx context.Context, eventID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.reads++
	return f.booked, nil
}

func TestFitsBoundaryInclusive(t *testing.T) {
	cases := []struct {
		name      string
		capacity  int
		booked    int
		requested int
		want      bool
	}{
		{"exact fill", 5, 3, 2, true},
		{"one over", 5, 4, 2, false},
		{"empty event", 5, 0, 5, true},
		{"already full", 5, 5, 1, false},
		{"single seat", 1, 0, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fits(tc.capacity, tc.booked, tc.requested); got != tc.want {
				t.Fatalf("Fits(%d, %d, %d) = %v, want %v", tc.capacity, tc.booked, tc.requested, got, tc.want)
			}
		})
	}
}

func TestRemainingUnclamped(t *testing.T) {
	if got := Remaining(5, 4); got != 1 {
		t.Fatalf("Remaining(5, 4) = %d, want 1", got)
	}
	// A prior race can push the ledger over capacity; the value goes negative
	// rather than hiding the overshoot.
	if got := Remaining(5, 7); got != -2 {
		t.Fatalf("Remaining(5, 7) = %d, want -2", got)
	}
}

func TestCheckCapacityRejectsWithRemaining(t *testing.T) {
	ledger := &fakeLedger{capacity: 5, booked: 4}
	engine := NewEngine(ledger)

	res, err := engine.CheckCapacity(context.Background(), "ev1", 2)
	if err != nil {
		t.Fatalf("CheckCapacity error: %v", err)
	}
	if res.OK {
		t.Fatal("expected 2 seats to be rejected with 4 of 5 booked")
	}
	if res.Remaining != 1 {
		t.Fatalf("Remaining = %d, want 1", res.Remaining)
	}
}

func TestCheckCapacityIdempotentWithoutWrites(t *testing.T) {
	ledger := &fakeLedger{capacity: 10, booked: 6}
	engine := NewEngine(ledger)

	first, err := engine.CheckCapacity(context.Background(), "ev1", 4)
	if err != nil {
		t.Fatalf("first check error: %v", err)
	}
	second, err := engine.CheckCapacity(context.Background(), "ev1", 4)
	if err != nil {
		t.Fatalf("second check error: %v", err)
	}
	if first != second {
		t.Fatalf("repeated checks diverged: %+v vs %+v", first, second)
	}
	if !first.OK {
		t.Fatal("expected 4 seats to fit with 6 of 10 booked")
	}
	if ledger.reads != 2 {
		t.Fatalf("expected a fresh ledger read per check, got %d reads", ledger.reads)
	}
}

func TestCheckCapacityPropagatesLedgerError(t *testing.T) {
	wantErr := errors.New("ledger unavailable")
	engine := NewEngine(&fakeLedger{err: wantErr})

	if _, err := engine.CheckCapacity(context.Background(), "ev1", 1); !errors.Is(err, wantErr) {
		t.Fatalf("expected ledger error, got %v", err)
	}
}
