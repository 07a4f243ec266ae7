package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wumpusworld.ai/internal/protocol"
)

func header() protocol.EpisodeHeader {
	return protocol.EpisodeHeader{
		Type: protocol.TypeEpisode, ProtocolVersion: protocol.Version, EpisodeID: "ep-1",
		Seed: 5, GridSize: 4, PitProbability: 0.2,
	}
}

func obsMsg(turn int) protocol.ObserverMsg {
	return protocol.ObserverMsg{
		Type:            protocol.TypeObserve,
		ProtocolVersion: protocol.Version,
		EpisodeID:       "ep-1",
		State: protocol.StateObs{
			GridSize: 4, Turn: turn, Score: -turn, Agent: [2]int{1, 1}, Facing: "NORTH", Alive: true, HasArrow: true,
			InCave: true, Wumpus: [2]int{3, 1}, WumpusAlive: true, Gold: [2]int{2, 3}, Pits: [][2]int{{3, 3}},
		},
		Turn: &protocol.TurnRecord{
			Type: protocol.TypeTurn, Turn: turn, Action: protocol.ActTurnLeft, Score: -turn,
			Digest: strings.Repeat("0", 64),
		},
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WSPath
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.NoError(t, conn.WriteJSON(protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version}))
	return conn
}

func readObs(t *testing.T, conn *websocket.Conn) protocol.ObserverMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	_, err = protocol.ValidateMessage(b)
	require.NoError(t, err)
	var m protocol.ObserverMsg
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Subscribers() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_StreamsPublishedTurns(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()
	defer hub.Close()

	hub.Begin(header())
	hub.Publish(obsMsg(1))

	conn := dial(t, srv)
	defer conn.Close()
	waitSubscribers(t, hub, 1)

	// Catch-up message first, then live ones.
	assert.Equal(t, 1, readObs(t, conn).State.Turn)
	hub.Publish(obsMsg(2))
	hub.Publish(obsMsg(3))
	assert.Equal(t, 2, readObs(t, conn).State.Turn)
	got := readObs(t, conn)
	assert.Equal(t, 3, got.Turn.Turn)
	assert.Equal(t, protocol.ActTurnLeft, got.Turn.Action)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitSubscribers(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)

	hub.Publish(obsMsg(9))
	hub.Close()
}

func TestHub_ClientLeaving(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)
	require.NoError(t, conn.Close())
	waitSubscribers(t, hub, 0)
}

func TestHub_KeepsSilentClientAlive(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil, WithKeepalive(20*time.Millisecond, 80*time.Millisecond))
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)

	// The client never writes; its read loop answers the hub's pings.
	got := make(chan []byte, 4)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- b
		}
	}()

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 1, hub.Subscribers(), "client dropped while idle")

	hub.Begin(header())
	hub.Publish(obsMsg(7))
	select {
	case b := <-got:
		var m protocol.ObserverMsg
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Equal(t, 7, m.State.Turn)
	case <-time.After(5 * time.Second):
		t.Fatal("no message after idle period")
	}

	require.NoError(t, conn.Close())
	<-readerDone
	waitSubscribers(t, hub, 0)
}

func TestHub_DropsClientThatStopsAnswering(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil, WithKeepalive(20*time.Millisecond, 250*time.Millisecond))
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()
	defer hub.Close()

	// Without a read loop the client never processes pings.
	conn := dial(t, srv)
	defer conn.Close()
	waitSubscribers(t, hub, 1)
	waitSubscribers(t, hub, 0)
}

func TestHub_RejectsBadHandshake(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WSPath
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "HELLO"}))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "%v", err)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestBootstrap(t *testing.T) {
	hub := NewHub(nil)
	h := hub.BootstrapHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, BootstrapPath, nil)
	req.RemoteAddr = "127.0.0.1:5555"
	h(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	hub.Begin(header())
	hub.Publish(obsMsg(4))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, BootstrapPath, nil)
	req.RemoteAddr = "127.0.0.1:5555"
	h(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp protocol.BootstrapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ep-1", resp.Episode.EpisodeID)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, 4, resp.Latest.State.Turn)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, BootstrapPath, nil)
	req.RemoteAddr = "10.1.2.3:5555"
	h(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, BootstrapPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIsLoopbackRemote(t *testing.T) {
	assert.True(t, isLoopbackRemote("127.0.0.1:80"))
	assert.True(t, isLoopbackRemote("[::1]:80"))
	assert.False(t, isLoopbackRemote("192.168.1.4:80"))
	assert.False(t, isLoopbackRemote("garbage"))
}
