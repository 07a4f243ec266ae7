// Package observer streams a running episode to read-only websocket clients.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wumpusworld.ai/internal/protocol"
)

const (
	BootstrapPath = "/observer/bootstrap"
	WSPath        = "/observer/ws"

	DefaultPingPeriod = 30 * time.Second
	DefaultPongWait   = 60 * time.Second
)

// Hub keeps the latest observer message and fans every published message
// out to subscribed clients. Slow clients miss messages rather than stall
// the episode.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	dropped  atomic.Uint64

	mu     sync.Mutex
	closed bool
	header *protocol.EpisodeHeader
	latest *protocol.ObserverMsg
	last   []byte
	subs   map[string]chan []byte
	wg     sync.WaitGroup

	pingPeriod time.Duration
	pongWait   time.Duration
}

type HubOption func(*Hub)

// WithKeepalive sets how often clients are pinged and how long a client may
// go without answering before it is dropped. pongWait should exceed ping.
func WithKeepalive(ping, pongWait time.Duration) HubOption {
	return func(h *Hub) {
		h.pingPeriod = ping
		h.pongWait = pongWait
	}
}

func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		log:        logger,
		subs:       map[string]chan []byte{},
		pingPeriod: DefaultPingPeriod,
		pongWait:   DefaultPongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see isLoopbackRemote
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Begin announces a new episode. The latest message is reset.
func (h *Hub) Begin(header protocol.EpisodeHeader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.header = &header
	h.latest = nil
	h.last = nil
}

// Publish records msg as the latest state and queues it for every client.
func (h *Hub) Publish(msg protocol.ObserverMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("observer marshal", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = &msg
	h.last = b
	for _, ch := range h.subs {
		select {
		case ch <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers is the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped counts messages skipped for slow clients.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every client and waits for their handlers to return.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hub) subscribe() (string, chan []byte, []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", nil, nil, false
	}
	sid := fmt.Sprintf("O%d", h.nextID.Add(1))
	ch := make(chan []byte, 64)
	h.subs[sid] = ch
	h.wg.Add(1)
	return sid, ch, h.last, true
}

func (h *Hub) unsubscribe(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[sid]; ok {
		close(ch)
		delete(h.subs, sid)
	}
}

// Routes mounts the bootstrap and websocket handlers.
func (h *Hub) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(BootstrapPath, h.BootstrapHandler())
	mux.Handle(WSPath, h.WSHandler())
	return mux
}

func (h *Hub) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		h.mu.Lock()
		if h.header == nil {
			h.mu.Unlock()
			http.Error(rw, "no episode", http.StatusServiceUnavailable)
			return
		}
		resp := protocol.BootstrapResponse{
			ProtocolVersion: protocol.Version,
			Episode:         *h.header,
			Latest:          h.latest,
		}
		h.mu.Unlock()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (h *Hub) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
			closeWith(conn, websocket.ClosePolicyViolation, "expected SUBSCRIBE")
			return
		}

		sid, out, last, ok := h.subscribe()
		if !ok {
			closeWith(conn, websocket.CloseGoingAway, "hub closed")
			return
		}
		defer h.wg.Done()
		defer h.unsubscribe(sid)
		h.log.Debug("observer joined", zap.String("session", sid), zap.String("remote", r.RemoteAddr))

		if last != nil {
			if err := writeMessage(conn, last); err != nil {
				return
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Clients send nothing after SUBSCRIBE, so liveness comes from pongs.
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.pongWait))
		})

		// Writer goroutine.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			ping := time.NewTicker(h.pingPeriod)
			defer ping.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ping.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
						_ = conn.Close()
						return
					}
				case b, ok := <-out:
					if !ok {
						closeWith(conn, websocket.CloseGoingAway, "episode over")
						_ = conn.Close()
						return
					}
					if err := writeMessage(conn, b); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()

		// Reader loop: detects disconnects and runs the pong handler.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		<-writerDone
		h.log.Debug("observer left", zap.String("session", sid))
	}
}

func writeMessage(conn *websocket.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
