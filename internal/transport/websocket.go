// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"lipsync/internal/log"

	"github.com/gorilla/websocket"
)

const (
	broadcastBuffer = 256
	writeTimeout    = time.Second
)

// WebSocketTransport broadcasts every event as a JSON text message to all
// clients connected on /ws. Send never blocks: when the broadcast queue is
// full the event is dropped, since a newer estimate supersedes it anyway.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
	log       *log.Logger
}

// NewWebSocketTransport starts a WebSocket server on addr.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := newWebSocketTransport()

	mux := http.NewServeMux()
	mux.Handle("/ws", wst)
	wst.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		wst.log.Infof("listening on ws://%s/ws", addr)
		if err := wst.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wst.log.Errorf("server error: %v", err)
		}
	}()
	return wst
}

// newWebSocketTransport returns a transport with its broadcast loop running
// but no listener, for mounting on an existing server.
func newWebSocketTransport() *WebSocketTransport {
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // animation clients run anywhere
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan any, broadcastBuffer),
		done:      make(chan struct{}),
		log:       log.New("websocket"),
	}
	go wst.handleBroadcasts()
	return wst
}

// ServeHTTP upgrades the request and registers the client.
func (wst *WebSocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warnf("upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = struct{}{}
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	wst.log.Infof("client %s connected, total: %d", conn.RemoteAddr(), total)

	// Clients never send anything meaningful; a read error means they left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	if ok {
		conn.Close()
		wst.log.Infof("client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteJSON(data); err != nil {
					wst.log.Warnf("send to %s failed: %v", client.RemoteAddr(), err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send queues data for broadcast.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return errors.New("websocket transport closed")
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
		wst.log.Debugf("broadcast queue full, dropping %T", data)
	}
	return nil
}

// Close disconnects every client and stops the server.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		clear(wst.clients)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
