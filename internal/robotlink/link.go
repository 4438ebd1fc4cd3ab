// Package robotlink provides an abstraction over the wall robot's serial
// connection with the ability for multiple clients to subscribe to feedback
// lines from the controller and send commands to a single device.
package robotlink

import (
	"bufio"
	"bytes"
	"context"
	crand "crypto/rand"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"tailscale.com/tsweb"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

var ErrWriteFailed = fmt.Errorf("failed to write to robot port")

//go:embed templates/*
var adminTemplateFS embed.FS

var sendCommandTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/send-command.html.tmpl"))

// Link is a generic robot port multiplexer that allows multiple clients to
// subscribe to feedback lines from a single controller.
type Link[T RobotPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	uploadMu     sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// LinkInterface defines the interface for the Link type.
type LinkInterface interface {
	// Subscribe creates a new channel for receiving feedback lines from the
	// controller. The channel ID is used to identify the unique channel when
	// unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the robot port.
	SendCommand(string) error
	// UploadTrajectory streams a planned path to the controller and starts
	// execution.
	UploadTrajectory(geom.Path) error
	// Monitor reads lines from the robot port and sends them to the
	// appropriate channels.
	Monitor(context.Context) error
	// Close closes all subscribed channels and closes the robot port.
	Close() error

	Initialize() error

	// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP
	// mux served at /debug/. These routes are accessible only over
	// localhost/via Tailscale and are not publicly accessible.
	AttachAdminRoutes(*http.ServeMux)
}

// NewLink creates a Link instance backed by the given robot port.
func NewLink[T RobotPorter](port T) *Link[T] {
	return &Link[T]{
		port:         port,
		subscribers:  make(map[string]chan string),
		subscriberMu: sync.Mutex{},
		commandMu:    sync.Mutex{},
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (l *Link[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// Initialize resets the controller, syncs its clock and enables the
// feedback output the line handlers expect.
func (l *Link[T]) Initialize() error {
	for _, command := range []string{
		"RS", // soft reset, clears any queued trajectory
		"UM", // accept and report distances in metres
		"OA", // enable command acknowledgements
		"OT", // enable position telemetry while executing
	} {
		if err := l.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}

	// sync the controller clock to the current UNIX time
	command := fmt.Sprintf("C=%d", time.Now().Unix())
	if err := l.SendCommand(command); err != nil {
		return fmt.Errorf("failed to synchronize clock: %w", err)
	}

	return nil
}

// SendCommand sends a command to the robot port.
func (l *Link[T]) SendCommand(command string) error {
	l.commandMu.Lock()
	defer l.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n" // ensure command ends with a newline
	}
	n, err := l.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// UploadTrajectory streams a planned path to the controller: a TJ header
// with the point count, one P line per waypoint, then GO to start the
// sweep. Uploads are serialized so two clients cannot interleave point
// streams.
func (l *Link[T]) UploadTrajectory(path geom.Path) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot upload an empty trajectory")
	}

	l.uploadMu.Lock()
	defer l.uploadMu.Unlock()

	if err := l.SendCommand(fmt.Sprintf("TJ %d", len(path))); err != nil {
		return fmt.Errorf("failed to start trajectory upload: %w", err)
	}
	for i, p := range path {
		if err := l.SendCommand(fmt.Sprintf("P %v %v", p.X, p.Y)); err != nil {
			return fmt.Errorf("failed to upload point %d: %w", i, err)
		}
	}
	if err := l.SendCommand("GO"); err != nil {
		return fmt.Errorf("failed to start trajectory execution: %w", err)
	}
	return nil
}

// Monitor monitors the robot port for feedback lines and sends them to
// subscribers
func (l *Link[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(l.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// start a goroutine to read from the robot port & send any lines that are
	// scanned to lineChan, and any errors to the scanErrChan
	//
	// the blocking scan.Scan will not interfere with our outer loop awaiting
	// lines & context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		// check if the context is done
		// and exit the loop if so
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			// if the channel is closed, we're done reading from the robot port
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}
			// Check if we're closing
			l.closingMu.Lock()
			if l.closing {
				l.closingMu.Unlock()
				return nil
			}
			l.closingMu.Unlock()

			// otherwise take a read lock on the subscriber map
			l.subscriberMu.Lock()
			for _, ch := range l.subscribers {
				select {
				case ch <- line:
				default:
					// if the channel is full/blocking skip so as not to block the outer loop
				}
			}
			l.subscriberMu.Unlock()
		}
	}
}

func (l *Link[T]) Close() error {
	l.closingMu.Lock()
	l.closing = true
	l.closingMu.Unlock()

	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	return l.port.Close()
}

func (l *Link[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Basic command / live tail monitor interface using the below two API endpoints.
	debug.HandleFunc("send-command", "send a command to the robot port", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := sendCommandTemplate.Execute(buf, nil); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	// API endpoint to write command to the robot port
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		if err := l.SendCommand(command); err != nil {
			http.Error(w, "Failed to write command", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote command %q to robot port", command))
	})
	// API endpoint to issue Server-Side Events (SSE) in response to lines coming from the robot port.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := l.Subscribe()
		defer l.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					// Channel closed, exit gracefully
					return
				}
				_, err := w.Write([]byte(fmt.Sprintf("data: %s\n\n", payload)))
				if err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	debug.HandleSilentFunc("tail.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// serve tail.js from adminTemplateFS
		f, err := adminTemplateFS.Open("templates/tail.js")
		if err != nil {
			http.Error(w, "Failed to open tail.js", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})
}
