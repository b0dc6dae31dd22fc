package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"coachtrips/internal/mailer"
	"coachtrips/internal/model"
	"coachtrips/internal/rabbit"
	"coachtrips/internal/repo"
)

// Reader consumes delayed payment-reminder messages. When one fires it
// re-reads the booking: still active and unpaid means the booker gets a
// reminder email, anything else means the message is dropped. Bookings are
// never cancelled here; only the booking owner may cancel.
type Reader struct {
	RMQ     *rabbit.Client
	repo    repo.Repository
	smtpCfg mailer.Config
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, smtpCfg mailer.Config) *Reader {
	return &Reader{
		RMQ:     rmq,
		repo:    repo,
		smtpCfg: smtpCfg,
		done:    make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("payment reminder reader started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(func(body []byte) error {
			return r.handleMessage(cctx, body)
		}); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("payment reminder reader stopped by context")
	}()
}

// handleMessage never returns an error for a message that cannot ever
// succeed; a requeued poison payload would redeliver forever.
func (r *Reader) handleMessage(ctx context.Context, body []byte) error {
	var msg rabbit.PaymentReminderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("Dropping malformed reminder message: %s", string(body))
		return nil
	}

	zlog.Logger.Info().
		Str("booking_id", msg.BookingID).
		Str("event_id", msg.EventID).
		Msg("Received payment reminder from RabbitMQ")

	b, err := r.repo.GetBooking(ctx, msg.EventID, msg.BookingID)
	if err != nil {
		zlog.Logger.Warn().
			Err(err).
			Str("booking_id", msg.BookingID).
			Msg("Booking no longer resolves, dropping reminder")
		return nil
	}

	if b.Payed || b.Status != model.StatusActive {
		zlog.Logger.Info().
			Str("booking_id", msg.BookingID).
			Msg("Booking paid or cancelled, skipping reminder")
		return nil
	}

	event, err := r.repo.GetEventByID(ctx, msg.EventID)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("event_id", msg.EventID).
			Msg("Failed to get event from DB in worker")
		return nil
	}

	if err := mailer.SendBookingEmail(
		&zlog.Logger,
		r.smtpCfg,
		event.Title,
		"reminder",
		b.BookerEmail,
	); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Msg("Failed to send reminder e-mail")
	}

	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
