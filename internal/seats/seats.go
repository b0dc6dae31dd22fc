package seats

import "context"

// Ledger is the slice of the store the engine needs: total capacity and the
// derived booked-seat total, both read fresh on every call.
type Ledger interface {
	EventCapacity(ctx context.Context, eventID string) (int, error)
	SeatsBooked(ctx context.Context, eventID string) (int, error)
}

// CheckResult reports whether a prospective booking fits. Remaining is only
// meaningful when OK is false; it may be zero or negative when a prior race
// already pushed the ledger over capacity.
type CheckResult struct {
	OK        bool
	Remaining int
}

// Fits is the single capacity rule shared by every write and read path:
// the new total must not exceed capacity, boundary inclusive.
func Fits(capacity, booked, requested int) bool {
	return booked+requested <= capacity
}

// Remaining is capacity minus the current booked total, unclamped.
func Remaining(capacity, booked int) int {
	return capacity - booked
}

type Engine struct {
	ledger Ledger
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// SeatsBooked returns the current booked total for the event, 0 when it has
// no bookings.
func (e *Engine) SeatsBooked(ctx context.Context, eventID string) (int, error) {
	return e.ledger.SeatsBooked(ctx, eventID)
}

// CheckCapacity decides whether requested seats fit, from a fresh read of
// capacity and the booked total. Repeated calls without an intervening write
// return the same result.
func (e *Engine) CheckCapacity(ctx context.Context, eventID string, requested int) (CheckResult, error) {
	capacity, err := e.ledger.EventCapacity(ctx, eventID)
	if err != nil {
		return CheckResult{}, err
	}
	booked, err := e.ledger.SeatsBooked(ctx, eventID)
	if err != nil {
		return CheckResult{}, err
	}
	if !Fits(capacity, booked, requested) {
		return CheckResult{OK: false, Remaining: Remaining(capacity, booked)}, nil
	}
	return CheckResult{OK: true}, nil
}
