// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package events provides the diagnostic event channel shared by the vault
// and chain layers. It is an explicit object with an explicit lifecycle:
// created once at process start and handed by reference to every component
// that emits events — there is no package-level singleton.
package events

import (
	"sync"
	"time"
)

// Event is a single diagnostic record.
type Event struct {
	// Type is a short machine-readable kind, e.g. "vault_unlocked",
	// "integrity_warning", "endpoint_failover".
	Type string

	// Message is the human-readable description.
	Message string

	// At is the emission time.
	At time.Time

	// Fields carries optional structured context.
	Fields map[string]string
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus fans published events out to registered handlers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns a subscription token for Unsubscribe.
func (b *Bus) Subscribe(h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[b.nextID] = h
	return b.nextID
}

// Unsubscribe removes the handler registered under id. Unknown ids are
// ignored.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Publish delivers an event to every current subscriber.
func (b *Bus) Publish(eventType, message string, fields map[string]string) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	evt := Event{Type: eventType, Message: message, At: time.Now(), Fields: fields}
	for _, h := range handlers {
		h(evt)
	}
}
