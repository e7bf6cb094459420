package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case b := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(b, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return Frame{}
}

func TestHubEmitToRoom(t *testing.T) {
	h := NewHub(4)
	alice := newClient("", 4)
	bob := newClient("", 4)
	h.Join(alice, "alice")
	h.Join(bob, "bob")

	h.Emit(context.Background(), "alice", EventNotification, map[string]string{"message": "hi"})

	f := recvFrame(t, alice)
	require.Equal(t, EventNotification, f.Event)
	require.JSONEq(t, `{"message":"hi"}`, string(f.Data))
	require.Len(t, bob.send, 0)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub(1)
	c := newClient("", 1)
	h.Join(c, "room")
	before := testutil.ToFloat64(metrics.RelayDropped.WithLabelValues(EventNewMessage))

	h.Emit(context.Background(), "room", EventNewMessage, "one")
	h.Emit(context.Background(), "room", EventNewMessage, "two")

	require.Len(t, c.send, 1)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RelayDropped.WithLabelValues(EventNewMessage)))
}

func TestHubLeaveRemovesFromAllRooms(t *testing.T) {
	h := NewHub(4)
	c := newClient("", 4)
	h.Join(c, "a")
	h.Join(c, "b")
	require.Equal(t, 1, h.RoomSize("a"))
	h.Leave(c)
	require.Equal(t, 0, h.RoomSize("a"))
	require.Equal(t, 0, h.RoomSize("b"))

	// emitting to an empty room is a no-op
	h.Emit(context.Background(), "a", EventNotification, "x")
	require.Len(t, c.send, 0)
}

func wsServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(r.Context(), conn, r.URL.Query().Get("as"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, as string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?as=" + as
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServeRegisterAndReceive(t *testing.T) {
	h := NewHub(8)
	srv := wsServer(t, h)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "register", "data": "u1"}))
	f := readFrame(t, conn)
	require.Equal(t, EventRegistered, f.Event)
	require.Equal(t, 1, h.RoomSize("u1"))

	h.Emit(context.Background(), "u1", EventNewMessage, map[string]string{"text": "yo"})
	f = readFrame(t, conn)
	require.Equal(t, EventNewMessage, f.Event)
	require.JSONEq(t, `{"text":"yo"}`, string(f.Data))

	conn.Close()
	require.Eventually(t, func() bool { return h.RoomSize("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeRejectsForeignRegister(t *testing.T) {
	h := NewHub(8)
	srv := wsServer(t, h)
	conn := dial(t, srv, "u1")

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "register", "data": "u2"}))
	f := readFrame(t, conn)
	require.Equal(t, EventError, f.Event)
	require.Equal(t, 0, h.RoomSize("u2"))

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "register", "data": 42}))
	require.Equal(t, EventError, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "register", "data": "u1"}))
	require.Equal(t, EventRegistered, readFrame(t, conn).Event)
}

func TestRedisBridgeFanOut(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h1, h2 := NewHub(8), NewHub(8)
	require.NoError(t, NewRedisBridge(redis.NewClient(&redis.Options{Addr: m.Addr()}), "", h1).Start(ctx))
	require.NoError(t, NewRedisBridge(redis.NewClient(&redis.Options{Addr: m.Addr()}), "", h2).Start(ctx))

	local := newClient("", 8)
	remote := newClient("", 8)
	h1.Join(local, "u1")
	h2.Join(remote, "u1")

	h1.Emit(ctx, "u1", EventFriendAdded, map[string]string{"fullName": "Bob"})

	require.Equal(t, EventFriendAdded, recvFrame(t, local).Event)
	f := recvFrame(t, remote)
	require.Equal(t, EventFriendAdded, f.Event)
	require.JSONEq(t, `{"fullName":"Bob"}`, string(f.Data))

	// the origin ignores its own echo
	select {
	case <-local.send:
		t.Fatal("origin delivered its own event twice")
	case <-time.After(200 * time.Millisecond):
	}
}
