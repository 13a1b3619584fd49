package service

import (
	"sync"

	"github.com/rs/zerolog"
)

// Bus is a fan-out pub/sub for the map commands of one session.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Command]struct{}
	log  zerolog.Logger
}

// NewBus creates a new command bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{subs: make(map[chan Command]struct{}), log: log}
}

// Publish sends a command to all subscribers (non-blocking). A subscriber
// whose buffer is full would miss the command, so it is evicted instead and
// its channel closed; the reader has to resync the page.
func (b *Bus) Publish(c Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			delete(b.subs, ch)
			close(ch)
			b.log.Warn().Str("op", c.Op).Msg("map subscriber too slow, evicted")
		}
	}
}

// Subscribe returns a buffered channel that receives commands.
func (b *Bus) Subscribe() chan Command {
	ch := make(chan Command, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Evicted
// subscribers are already closed.
func (b *Bus) Unsubscribe(ch chan Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
