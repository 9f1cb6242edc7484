package server

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
	"github.com/vmihailenco/msgpack/v5"
)

func dialRoom(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// readUntil 读取快照直到满足条件
func readUntil(t *testing.T, ws *websocket.Conn, decode func([]byte) StateMessage, ok func(StateMessage) bool) StateMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, payload, err := ws.ReadMessage()
		require.NoError(t, err)
		if msg := decode(payload); ok(msg) {
			return msg
		}
	}
}

func TestWebSocketGrindRoundTrip(t *testing.T) {
	m := testManager(t)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWS))
	defer srv.Close()

	ws := dialRoom(t, srv, "room=ws-room&player=alice")
	decode := func(b []byte) StateMessage {
		var msg StateMessage
		require.NoError(t, json.Unmarshal(b, &msg))
		return msg
	}
	readUntil(t, ws, decode, func(msg StateMessage) bool { return len(msg.Players) == 1 })

	require.NoError(t, ws.WriteJSON(InputMessage{Type: "grind", Seq: 1}))
	msg := readUntil(t, ws, decode, func(msg StateMessage) bool { return len(msg.Grinds) == 1 })
	assert.Equal(t, "line", msg.Grinds[0].RailID)
	assert.Equal(t, "line", msg.Players[0].Rail)

	require.NoError(t, ws.WriteJSON(InputMessage{Type: "detach", Seq: 2}))
	readUntil(t, ws, decode, func(msg StateMessage) bool { return len(msg.Grinds) == 0 })

	room, ok := m.Room("ws-room")
	require.True(t, ok)
	assert.Equal(t, 1, room.NumPlayers())

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool { return room.NumPlayers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketReconnectKeepsPlayer(t *testing.T) {
	m := testManager(t)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWS))
	defer srv.Close()

	decode := func(b []byte) StateMessage {
		var msg StateMessage
		require.NoError(t, json.Unmarshal(b, &msg))
		return msg
	}
	first := dialRoom(t, srv, "room=rc&player=alice")
	readUntil(t, first, decode, func(msg StateMessage) bool { return len(msg.Players) == 1 })

	second := dialRoom(t, srv, "room=rc&player=alice")
	readUntil(t, second, decode, func(msg StateMessage) bool { return len(msg.Players) == 1 })

	// 服务端关闭旧连接，其读协程的离开请求不能带走新连接
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	time.Sleep(300 * time.Millisecond)

	room, ok := m.Room("rc")
	require.True(t, ok)
	assert.Equal(t, 1, room.NumPlayers())

	require.NoError(t, second.WriteJSON(InputMessage{Type: "grind", Seq: 1}))
	msg := readUntil(t, second, decode, func(msg StateMessage) bool { return len(msg.Grinds) == 1 })
	assert.Equal(t, "alice", msg.Players[0].ID)
}

func TestWebSocketMsgpackFrames(t *testing.T) {
	m := testManager(t)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWS))
	defer srv.Close()

	ws := dialRoom(t, srv, "player=bob&codec=msgpack")
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	frame, payload, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, frame)

	var msg StateMessage
	require.NoError(t, msgpack.Unmarshal(payload, &msg))
	assert.Equal(t, "state", msg.Type)

	_, ok := m.Room("room-1")
	assert.True(t, ok, "missing room query should use the default room")
}

func TestWebSocketRequiresPlayer(t *testing.T) {
	m := testManager(t)
	srv := httptest.NewServer(http.HandlerFunc(m.HandleWS))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws?room=x")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
