package fanout

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const subscriptionBuffer = 100

// Hub fans envelopes out to the subscriptions of this process.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
	log  zerolog.Logger
}

var _ Transport = (*Hub)(nil)

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log.With().Str("component", "hub").Logger(),
	}
}

// Subscription receives envelopes for a set of channels. Channels can be
// left but never added.
type Subscription struct {
	hub      *Hub
	channels []string
	ch       chan Envelope
	once     sync.Once
}

func (h *Hub) Subscribe(channels ...string) *Subscription {
	sub := &Subscription{
		hub:      h,
		channels: append([]string(nil), channels...),
		ch:       make(chan Envelope, subscriptionBuffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range channels {
		if h.subs[c] == nil {
			h.subs[c] = make(map[*Subscription]struct{})
		}
		h.subs[c][sub] = struct{}{}
	}
	return sub
}

func (s *Subscription) Messages() <-chan Envelope {
	return s.ch
}

func (s *Subscription) Channels() []string {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return append([]string(nil), s.channels...)
}

// Has reports whether the subscription still listens on channel.
func (s *Subscription) Has(channel string) bool {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	for _, c := range s.channels {
		if c == channel {
			return true
		}
	}
	return false
}

// Leave stops delivery on channel. Envelopes already buffered for it stay
// in Messages; callers filter them with Has.
func (s *Subscription) Leave(channel string) {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := s.channels[:0]
	for _, c := range s.channels {
		if c != channel {
			kept = append(kept, c)
		}
	}
	s.channels = kept
	delete(h.subs[channel], s)
	if len(h.subs[channel]) == 0 {
		delete(h.subs, channel)
	}
}

// Close detaches the subscription and closes its message channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		for _, c := range s.channels {
			delete(h.subs[c], s)
			if len(h.subs[c]) == 0 {
				delete(h.subs, c)
			}
		}
		h.mu.Unlock()
		close(s.ch)
	})
}

// Deliver never blocks: a subscriber whose buffer is full misses the
// envelope and is expected to catch up from its notifications.
func (h *Hub) Deliver(_ context.Context, env Envelope) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[env.Channel] {
		select {
		case sub.ch <- env:
		default:
			h.log.Warn().Str("channel", env.Channel).Str("event", env.Event).Msg("subscriber buffer full, envelope dropped")
		}
	}
	return nil
}

// Subscribers reports how many subscriptions listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}
