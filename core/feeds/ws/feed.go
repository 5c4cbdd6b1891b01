// Package ws exposes the event stream to spectators over WebSocket.
// The feed is read-only; spectators observe, they never act.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mindvale/worldcore/core/events"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/mindvale/worldcore/core/feeds/ws"

var logger = otelslog.NewLogger(scopeName)

const writeTimeout = 5 * time.Second

// wireEvent is the JSON shape sent to spectators.
type wireEvent struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Actor       string            `json:"actor"`
	Location    string            `json:"location,omitempty"`
	Message     string            `json:"message,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	Destination string            `json:"destination,omitempty"`
	Via         string            `json:"via,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Feed is an http.Handler that upgrades connections and broadcasts
// every recorded event to all connected spectators. It satisfies the
// router's recorder contract.
type Feed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool

	// writeMu serializes broadcasts; gorilla connections allow only
	// one concurrent writer.
	writeMu sync.Mutex
}

func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: map[*websocket.Conn]struct{}{},
	}
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "failed to upgrade spectator connection", "error", err)
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		conn.Close()
		return
	}
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	// Spectators send nothing; the read loop only notices the close.
	go func() {
		defer f.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Record broadcasts one event to every connected spectator. A client
// that cannot keep up is dropped rather than allowed to stall the
// publish path.
func (f *Feed) Record(event events.Event) error {
	if f == nil {
		return fmt.Errorf("feed is not running")
	}

	payload, err := json.Marshal(wireEvent{
		ID:          event.ID,
		Kind:        string(event.Kind),
		Actor:       event.Actor,
		Location:    event.Location,
		Message:     event.Message,
		Origin:      event.Origin,
		Destination: event.Destination,
		Via:         event.Via,
		Metadata:    event.Metadata,
		Timestamp:   event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for conn := range f.clients {
		conns = append(conns, conn)
	}
	f.mu.Unlock()

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			f.drop(conn)
		}
	}
	return nil
}

// Clients reports the number of connected spectators.
func (f *Feed) Clients() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, ok := f.clients[conn]
	delete(f.clients, conn)
	f.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// Close disconnects all spectators and rejects new ones.
func (f *Feed) Close() error {
	if f == nil {
		return nil
	}

	f.mu.Lock()
	f.closed = true
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for conn := range f.clients {
		conns = append(conns, conn)
	}
	f.clients = map[*websocket.Conn]struct{}{}
	f.mu.Unlock()

	for _, conn := range conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed closed"),
			time.Now().Add(writeTimeout))
		conn.Close()
	}
	return nil
}
