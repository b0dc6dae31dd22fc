// Package booking orchestrates the booking lifecycle: seat input parsing,
// the capacity gate, the payment branch, and the cancel flows. It talks to
// the store through a narrow interface so it can be exercised without a
// database or a UI.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"coachtrips/internal/dto"
	"coachtrips/internal/model"
	"coachtrips/internal/repo"
	"coachtrips/internal/seats"
)

// ErrConfirmationDeclined reports that the confirmation gate answered no.
// The operation performs no writes and prior state is unchanged.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// Store is the slice of the repository the controller needs.
type Store interface {
	GetEventByID(ctx context.Context, id string) (*model.TravelEvent, error)
	EventCapacity(ctx context.Context, eventID string) (int, error)
	SeatsBooked(ctx context.Context, eventID string) (int, error)
	CreateBookingTx(ctx context.Context, eventID string, b *model.Booking) (string, error)
	GetBooking(ctx context.Context, eventID, bookingID string) (*model.Booking, error)
	UpdateBookingPaymentStatus(ctx context.Context, eventID, bookingID string, paid bool) error
	CancelBookingTx(ctx context.Context, eventID, bookingID string) error
	CancelEvent(ctx context.Context, id string) error
}

// ConfirmFunc is the injected yes/no confirmation gate. The calling layer
// prompts the user; the controller only reads the answer.
type ConfirmFunc func(ctx context.Context, message string) bool

type confirmAnswerKey struct{}

// WithConfirmation stashes the caller's confirmation answer on the context
// so ConfirmFromContext can read it.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmAnswerKey{}, confirmed)
}

// ConfirmFromContext is the ConfirmFunc used by the HTTP layer: the client
// already prompted the user, and the answer rides in on the request.
func ConfirmFromContext(ctx context.Context, _ string) bool {
	confirmed, ok := ctx.Value(confirmAnswerKey{}).(bool)
	return ok && confirmed
}

// LiveNotifier receives fresh seat totals after any write that changes them,
// and a separate signal when the event's own fields change.
type LiveNotifier interface {
	SeatsChanged(eventID string, seatsBooked int)
	EventUpdated(eventID string, seatsBooked int)
}

// ReminderScheduler schedules a deferred payment reminder for an unpaid
// booking. Failures are logged, never surfaced to the booker.
type ReminderScheduler interface {
	SchedulePaymentReminder(eventID, bookingID string) error
}

type Controller struct {
	store     Store
	engine    *seats.Engine
	confirm   ConfirmFunc
	live      LiveNotifier
	reminders ReminderScheduler
	log       *zerolog.Logger
}

func NewController(store Store, confirm ConfirmFunc, live LiveNotifier, reminders ReminderScheduler, log *zerolog.Logger) *Controller {
	return &Controller{
		store:     store,
		engine:    seats.NewEngine(store),
		confirm:   confirm,
		live:      live,
		reminders: reminders,
		log:       log,
	}
}

// ParseSeats validates the raw seat-count input from the join form. The
// three error strings are a UI contract and checked in this order.
func ParseSeats(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errors.New(dto.MsgSeatsRequired)
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.New(dto.MsgSeatsNotWhole)
	}
	if n <= 0 {
		return 0, errors.New(dto.MsgSeatsAtLeastOne)
	}
	return n, nil
}

type JoinInput struct {
	EventID     string
	SeatsRaw    string
	BookerName  string
	BookerEmail string
	BookerUID   string
	PayNow      bool
	Payment     *dto.PaymentDetails
}

type JoinOutcome struct {
	BookingID string
	Message   string
	// PaymentRequired is set when the event demands instant payment and no
	// capture was supplied. Nothing has been persisted; the caller must
	// collect payment and join again.
	PaymentRequired bool
}

// Join books seats on an event. The booking is persisted exactly once per
// successful call: either unpaid straight away, or paid after the payment
// stub validates. The capacity check runs on a fresh seat total here and is
// re-evaluated inside the booking transaction.
func (c *Controller) Join(ctx context.Context, in JoinInput) (JoinOutcome, error) {
	seatCount, err := ParseSeats(in.SeatsRaw)
	if err != nil {
		return JoinOutcome{}, err
	}

	event, err := c.store.GetEventByID(ctx, in.EventID)
	if err != nil {
		return JoinOutcome{}, err
	}

	check, err := c.engine.CheckCapacity(ctx, in.EventID, seatCount)
	if err != nil {
		return JoinOutcome{}, err
	}
	if !check.OK {
		return JoinOutcome{}, &repo.NoSeatsError{Remaining: check.Remaining}
	}

	payNow := event.RequirePayment || in.PayNow
	if payNow && in.Payment == nil {
		if event.RequirePayment {
			return JoinOutcome{Message: dto.MsgInstantPaymentRequired, PaymentRequired: true}, nil
		}
		// Optional payment offered but no capture attached: treat as declined.
		payNow = false
	}
	if payNow {
		if err := in.Payment.Validate(); err != nil {
			return JoinOutcome{}, err
		}
	}

	b := &model.Booking{
		SeatsBooked: seatCount,
		Payed:       payNow,
		BookerName:  in.BookerName,
		BookerEmail: in.BookerEmail,
		BookerUID:   in.BookerUID,
	}
	bookingID, err := c.store.CreateBookingTx(ctx, in.EventID, b)
	if err != nil {
		return JoinOutcome{}, err
	}

	c.notifySeatsChanged(ctx, in.EventID)

	if !payNow && c.reminders != nil {
		if err := c.reminders.SchedulePaymentReminder(in.EventID, bookingID); err != nil {
			c.log.Warn().Err(err).Str("booking_id", bookingID).Msg("failed to schedule payment reminder")
		}
	}

	message := dto.MsgBookingSavedPending
	if payNow {
		message = dto.MsgPaymentSuccessful
	}
	return JoinOutcome{BookingID: bookingID, Message: message}, nil
}

// PayNow settles an existing unpaid booking. Only the payment flag is
// written; seat counts are untouched.
func (c *Controller) PayNow(ctx context.Context, eventID, bookingID string, payment dto.PaymentDetails) (string, error) {
	if _, err := c.store.GetBooking(ctx, eventID, bookingID); err != nil {
		return "", err
	}
	if err := payment.Validate(); err != nil {
		return "", err
	}
	if err := c.store.UpdateBookingPaymentStatus(ctx, eventID, bookingID, true); err != nil {
		return "", err
	}
	return dto.MsgPaymentSuccessful, nil
}

// CancelBooking soft-cancels the booking behind the confirmation gate,
// freeing its seats for future capacity checks.
func (c *Controller) CancelBooking(ctx context.Context, eventID, bookingID string) (string, error) {
	if !c.confirm(ctx, "Are you sure you want to cancel this booking?") {
		return "", ErrConfirmationDeclined
	}

	event, err := c.store.GetEventByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	if err := c.store.CancelBookingTx(ctx, eventID, bookingID); err != nil {
		return "", err
	}

	c.notifySeatsChanged(ctx, eventID)

	return fmt.Sprintf("Your booking for %s was cancelled.", event.Title), nil
}

// CancelEvent flips the event to cancelled behind the confirmation gate.
// Notifying booked users, refunds, and listing cancelled events are outside
// this transition.
func (c *Controller) CancelEvent(ctx context.Context, eventID string) error {
	if !c.confirm(ctx, "Are you sure you want to cancel this event?") {
		return ErrConfirmationDeclined
	}
	return c.store.CancelEvent(ctx, eventID)
}

// AnnounceEventUpdated tells subscribers the event's fields changed. Every
// successful event update goes through here, whatever fields it touched; the
// message carries a fresh seat total so capacity edits need no second read.
func (c *Controller) AnnounceEventUpdated(ctx context.Context, eventID string) {
	if c.live == nil {
		return
	}
	total, err := c.store.SeatsBooked(ctx, eventID)
	if err != nil {
		c.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to read seat total for live update")
		return
	}
	c.live.EventUpdated(eventID, total)
}

func (c *Controller) notifySeatsChanged(ctx context.Context, eventID string) {
	if c.live == nil {
		return
	}
	total, err := c.store.SeatsBooked(ctx, eventID)
	if err != nil {
		c.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to read seat total for live update")
		return
	}
	c.live.SeatsChanged(eventID, total)
}
