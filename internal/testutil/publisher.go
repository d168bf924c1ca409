package testutil

import (
	"context"
	"sync"
)

// PublishedEvent is one call captured by RecordingPublisher.
type PublishedEvent struct {
	Event   string
	Payload interface{}
}

// RecordingPublisher captures realtime events instead of sending them.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, event string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, PublishedEvent{Event: event, Payload: payload})
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent{}, p.events...)
}
