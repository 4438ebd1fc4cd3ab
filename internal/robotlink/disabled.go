package robotlink

import (
	"context"
	"net/http"
	"sync"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

// DisabledLink is a no-op Link implementation used when the robot hardware
// is absent (for --robot-disabled). It allows the server and admin routes to
// run without a real controller. It tracks subscribers so their channels can
// be deterministically closed on Unsubscribe() or Close(), allowing readers
// to unblock predictably during shutdown.
type DisabledLink struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closing     bool
}

func NewDisabledLink() *DisabledLink {
	return &DisabledLink{
		subscribers: make(map[string]chan string),
	}
}

func (d *DisabledLink) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)

	d.mu.Lock()
	if d.closing {
		// If already closing, return a closed channel so callers don't block.
		close(ch)
		d.mu.Unlock()
		return id, ch
	}
	d.subscribers[id] = ch
	d.mu.Unlock()
	return id, ch
}

func (d *DisabledLink) Unsubscribe(id string) {
	d.mu.Lock()
	if ch, ok := d.subscribers[id]; ok {
		close(ch)
		delete(d.subscribers, id)
	}
	d.mu.Unlock()
}

func (d *DisabledLink) SendCommand(string) error { return nil }

// UploadTrajectory reports success without sending anything, so planned
// paths can still be marked as executed in development.
func (d *DisabledLink) UploadTrajectory(geom.Path) error { return nil }

func (d *DisabledLink) Monitor(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }

func (d *DisabledLink) Close() error {
	d.mu.Lock()
	if d.closing {
		d.mu.Unlock()
		return nil
	}
	d.closing = true
	// Close all subscriber channels
	for id, ch := range d.subscribers {
		close(ch)
		delete(d.subscribers, id)
	}
	d.mu.Unlock()
	return nil
}

func (d *DisabledLink) Initialize() error { return nil }

func (d *DisabledLink) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/robot-disabled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("robot link disabled"))
	})
}
