package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/mural-robotics/wallsweep/internal/httputil"
)

// streamUpdates serves the live event feed as Server-Sent Events. Each
// bus event is one `data:` frame of JSON. The stream stays open until
// the client goes away or the bus shuts down.
func (s *Server) streamUpdates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(id)

	// Send initial ping to establish connection
	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				// Bus closed, exit gracefully
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("failed to encode event %s: %v", ev.ID, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
