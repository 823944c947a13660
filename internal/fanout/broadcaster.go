package fanout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Transport pushes an envelope to the live subscribers of its channel.
type Transport interface {
	Deliver(ctx context.Context, env Envelope) error
}

// Stream exports envelopes to an external consumer.
type Stream interface {
	Send(ctx context.Context, env Envelope) error
	Close() error
}

const (
	defaultQueueSize       = 256
	defaultDeliveryTimeout = 5 * time.Second
)

// Broadcaster is the Publisher used in production. A single worker drains
// a bounded queue so events leave in the order they were published.
type Broadcaster struct {
	notes     store.NotificationLog
	transport Transport
	stream    Stream
	log       zerolog.Logger
	timeout   time.Duration

	queue    chan ChangeEvent
	mu       sync.RWMutex
	closed   bool
	overflow sync.WaitGroup
	done     chan struct{}
}

var _ Publisher = (*Broadcaster)(nil)

type Option func(*Broadcaster)

func WithQueueSize(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.queue = make(chan ChangeEvent, n)
		}
	}
}

func WithStream(s Stream) Option {
	return func(b *Broadcaster) { b.stream = s }
}

func WithDeliveryTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBroadcaster starts the delivery worker. Call Close to stop it.
func NewBroadcaster(notes store.NotificationLog, transport Transport, log zerolog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		notes:     notes,
		transport: transport,
		log:       log.With().Str("component", "fanout").Logger(),
		timeout:   defaultDeliveryTimeout,
		queue:     make(chan ChangeEvent, defaultQueueSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

// Publish enqueues ev. When the queue is full the event is still written
// to the notification log, but live delivery is skipped so subscribers
// never see events out of order.
func (b *Broadcaster) Publish(ev ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.log.Warn().Str("event", ev.Name).Msg("broadcaster closed, event dropped")
		return
	}
	select {
	case b.queue <- ev:
	default:
		b.log.Warn().Str("event", ev.Name).Str("channel", ev.Channel).Msg("fanout queue full, skipping live delivery")
		b.overflow.Add(1)
		go func() {
			defer b.overflow.Done()
			ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
			defer cancel()
			b.persist(ctx, ev)
		}()
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (b *Broadcaster) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	select {
	case <-b.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.overflow.Wait()
	if b.stream != nil {
		return b.stream.Close()
	}
	return nil
}

func (b *Broadcaster) run() {
	defer close(b.done)
	for ev := range b.queue {
		b.deliver(ev)
	}
}

func (b *Broadcaster) deliver(ev ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	b.persist(ctx, ev)

	env := ev.Envelope()
	if err := b.transport.Deliver(ctx, env); err != nil {
		b.log.Warn().Err(err).Str("event", ev.Name).Str("channel", ev.Channel).Msg("live delivery failed")
	}
	if b.stream != nil {
		if err := b.stream.Send(ctx, env); err != nil {
			b.log.Warn().Err(err).Str("event", ev.Name).Msg("change stream export failed")
		}
	}
}

func (b *Broadcaster) persist(ctx context.Context, ev ChangeEvent) {
	notes := Notifications(ev)
	if len(notes) == 0 {
		return
	}
	if err := b.notes.Append(ctx, notes); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Error().Err(err).Str("event", ev.Name).Int("recipients", len(notes)).Msg("failed to persist notifications")
	}
}

// Notifications builds one record per distinct recipient of ev.
func Notifications(ev ChangeEvent) []model.Notification {
	seen := make(map[uuid.UUID]bool, len(ev.Recipients))
	notes := make([]model.Notification, 0, len(ev.Recipients))
	for _, userID := range ev.Recipients {
		if userID == uuid.Nil || seen[userID] {
			continue
		}
		seen[userID] = true
		notes = append(notes, model.Notification{
			UserID:    userID,
			EventID:   ev.ID,
			Channel:   ev.Channel,
			Event:     ev.Name,
			SenderID:  ev.SenderID,
			Data:      datatypes.JSONMap(ev.Payload),
			CreatedAt: ev.OccurredAt,
		})
	}
	return notes
}
