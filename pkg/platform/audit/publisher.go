package audit

import (
	"context"
	"sync"
)

// Publisher delivers audit events to a sink. Implementations must be safe for
// concurrent use. Publish failures are surfaced to the caller; whether they
// abort the surrounding operation is the caller's policy (this service logs
// and continues; an audit outage must not block compliance work).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards all events. Used when auditing is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// InMemory retains published events for inspection in tests.
type InMemory struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (p *InMemory) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *InMemory) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ByAction filters published events by action name.
func (p *InMemory) ByAction(action AuditEvent) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out
}
