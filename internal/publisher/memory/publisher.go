// Package memory keeps run notifications in process when no Pub/Sub topic
// is configured. Nothing is delivered: the log of events lives only as long
// as the process and is discarded on exit.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Notification is one event handed to Publish.
type Notification struct {
	ID      string
	Event   string
	Payload any
}

// Publisher appends notifications to an in-process log.
type Publisher struct {
	mu  sync.RWMutex
	log []Notification
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the event and returns its sequence-based ID.
func (p *Publisher) Publish(_ context.Context, event string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := fmt.Sprintf("local-%d", len(p.log)+1)
	p.log = append(p.log, Notification{ID: id, Event: event, Payload: payload})
	return id, nil
}

// Last returns the most recent notification, if any.
func (p *Publisher) Last() (Notification, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.log) == 0 {
		return Notification{}, false
	}
	return p.log[len(p.log)-1], true
}

// Messages returns a copy of the notification log.
func (p *Publisher) Messages() []Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Notification, len(p.log))
	copy(out, p.log)
	return out
}
