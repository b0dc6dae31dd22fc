package live

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Publisher pushes seat updates onto the shared Redis channel after a write
// commits. It satisfies the lifecycle controller's LiveNotifier.
type Publisher struct {
	rdb     *redis.Client
	channel string
	log     *zerolog.Logger
}

func NewPublisher(rdb *redis.Client, channel string, log *zerolog.Logger) *Publisher {
	return &Publisher{rdb: rdb, channel: channel, log: log}
}

func (p *Publisher) SeatsChanged(eventID string, seatsBooked int) {
	p.publish(Update{Kind: KindSeats, EventID: eventID, SeatsBooked: seatsBooked})
}

// EventUpdated signals that the event's own fields changed, carrying the
// current seat total so capacity edits land in one message.
func (p *Publisher) EventUpdated(eventID string, seatsBooked int) {
	p.publish(Update{Kind: KindEventUpdated, EventID: eventID, SeatsBooked: seatsBooked})
}

func (p *Publisher) publish(u Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to marshal live update")
		return
	}
	if err := p.rdb.Publish(context.Background(), p.channel, payload).Err(); err != nil {
		p.log.Warn().Err(err).Str("event_id", u.EventID).Msg("failed to publish live update")
	}
}

// Listener subscribes to the Redis channel and feeds the in-process hub, so
// local SSE readers observe commits made by any instance.
type Listener struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *zerolog.Logger
}

func NewListener(rdb *redis.Client, channel string, hub *Hub, log *zerolog.Logger) *Listener {
	return &Listener{rdb: rdb, channel: channel, hub: hub, log: log}
}

// Run blocks until the context is cancelled.
func (l *Listener) Run(ctx context.Context) {
	pubsub := l.rdb.Subscribe(ctx, l.channel)
	defer pubsub.Close()

	l.log.Info().Str("channel", l.channel).Msg("live update listener started")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("live update listener stopped by context")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var update Update
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				l.log.Error().Err(err).Msgf("failed to unmarshal seat update: %s", msg.Payload)
				continue
			}
			l.hub.Publish(update)
		}
	}
}
