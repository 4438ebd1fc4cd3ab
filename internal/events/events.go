// Package events provides an in-process publish/subscribe bus carrying
// trajectory lifecycle and robot activity events to any number of
// listeners (SSE clients, webhook notifiers, tests).
package events

import (
	crand "crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published on the bus.
const (
	TypeTrajectoryCreated = "trajectory.created"
	TypeTrajectoryDeleted = "trajectory.deleted"
	TypeRobotUpload       = "robot.upload"
	TypeRobotTelemetry    = "robot.telemetry"
)

// Event describes one thing that happened. Fields beyond ID, Type and
// At are populated per type: trajectory events carry TrajectoryID, Name
// and Points, robot uploads add ElapsedSeconds, telemetry carries the
// raw Message line.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	TrajectoryID   int       `json:"trajectory_id,omitempty"`
	Name           string    `json:"name,omitempty"`
	Points         int       `json:"points,omitempty"`
	ElapsedSeconds float64   `json:"elapsed_seconds,omitempty"`
	Message        string    `json:"message,omitempty"`
	At             time.Time `json:"at"`
}

// subscriberBuffer is the per-subscriber channel capacity. Publish
// drops events for a subscriber whose buffer is full rather than block
// the publisher.
const subscriberBuffer = 16

// Bus fans events out to subscribers. Each subscriber gets its own
// buffered channel; slow consumers miss events instead of stalling
// producers.
type Bus struct {
	subscribers  map[string]chan Event
	subscriberMu sync.Mutex
	closing      bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel for receiving events. The returned ID
// identifies the channel when unsubscribing.
func (b *Bus) Subscribe() (string, chan Event) {
	id := randomID()
	ch := make(chan Event, subscriberBuffer)

	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	if b.closing {
		// Already closing: hand back a closed channel so callers don't block.
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish delivers ev to every subscriber without blocking. A zero ID
// or At is stamped before delivery so callers only fill in what they
// know.
func (b *Bus) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	if b.closing {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber buffer full, drop rather than block the publisher
		}
	}
}

// Close closes all subscriber channels. Publish and Subscribe become
// no-ops afterwards.
func (b *Bus) Close() {
	b.subscriberMu.Lock()
	defer b.subscriberMu.Unlock()
	if b.closing {
		return
	}
	b.closing = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
