// Package events implements the process-wide signal bus. Signals are
// fire-and-forget: publishers never wait for acknowledgement and handlers
// receive a detail payload they must not mutate.
package events

import "sync"

// Topics published by the session layer and the API gateway.
const (
	TopicLoginSuccess   = "auth:login-success"
	TopicLogout         = "auth:logout"
	TopicSessionExpired = "auth:session-expired"
)

// Handler receives the detail payload of a published signal.
type Handler func(detail map[string]any)

// Bus fans signals out to subscribers. Handlers run synchronously in
// subscription order; a panicking handler does not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers fn for topic. There is no unsubscribe: subscribers
// live for the process lifetime.
func (b *Bus) Subscribe(topic string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], fn)
}

// Publish delivers detail to every subscriber of topic.
func (b *Bus) Publish(topic string, detail map[string]any) {
	b.mu.RLock()
	subs := make([]Handler, len(b.handlers[topic]))
	copy(subs, b.handlers[topic])
	b.mu.RUnlock()

	for _, fn := range subs {
		safeCall(fn, detail)
	}
}

func safeCall(fn Handler, detail map[string]any) {
	defer func() {
		_ = recover()
	}()
	fn(detail)
}
