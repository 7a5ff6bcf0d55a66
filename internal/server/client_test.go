package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/friends-room/internal/database"
	"github.com/npezzotti/friends-room/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	t.Run("queues without blocking", func(t *testing.T) {
		c := &Client{
			send: make(chan []byte, 1),
			stop: make(chan struct{}),
			done: make(chan struct{}),
		}

		assert.NoError(t, c.Send([]byte("a")))
		assert.ErrorIs(t, c.Send([]byte("b")), ErrSendBufferFull, "expected full buffer to fail the send")
		assert.Equal(t, []byte("a"), <-c.send)
	})

	t.Run("fails once stopped", func(t *testing.T) {
		c := &Client{
			send: make(chan []byte, 1),
			stop: make(chan struct{}),
			done: make(chan struct{}),
		}

		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close(), "expected Close to be idempotent")
		assert.ErrorIs(t, c.Send([]byte("a")), ErrConnClosed)
	})

	t.Run("fails once the write pump exited", func(t *testing.T) {
		c := &Client{
			send: make(chan []byte, 1),
			stop: make(chan struct{}),
			done: make(chan struct{}),
		}

		close(c.done)
		assert.ErrorIs(t, c.Send([]byte("a")), ErrConnClosed)
	})
}

// newWsRoom serves room over a test websocket endpoint using Client pumps.
func newWsRoom(t *testing.T) (*Room, string) {
	t.Helper()

	logger := testutil.TestLogger(t)
	room := newRoom("test-room", database.NewMemoryTranscriptRepository(), newTestStats(), logger)
	go room.start()
	t.Cleanup(func() { room.Shutdown(context.Background()) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(conn, room, logger)
		go client.Write()
		go client.Read()
	}))
	t.Cleanup(srv.Close)

	return room, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "expected websocket dial to succeed")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev), "expected an event from the room")
	return ev
}

func TestClient_ReadWrite(t *testing.T) {
	_, url := newWsRoom(t)

	alice := dial(t, url)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"username","name":"alice"}`)))
	assert.Equal(t, "history", readEvent(t, alice)["type"])
	assert.Equal(t, map[string]any{"type": "join", "name": "alice"}, readEvent(t, alice))

	bob := dial(t, url)
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte(`{"type":"username","name":"bob"}`)))
	assert.Equal(t, "history", readEvent(t, bob)["type"])
	assert.Equal(t, map[string]any{"type": "join", "name": "bob"}, readEvent(t, bob))
	assert.Equal(t, map[string]any{"type": "join", "name": "bob"}, readEvent(t, alice))

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"message","message":"hi bob"}`)))
	chat := readEvent(t, bob)
	assert.Equal(t, "chat", chat["type"])
	assert.Equal(t, "alice", chat["username"])
	assert.Equal(t, "hi bob", chat["message"])
	assert.Equal(t, chat, readEvent(t, alice))

	// closing alice's socket produces a leave for bob
	require.NoError(t, alice.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	alice.Close()
	assert.Equal(t, map[string]any{"type": "leave", "name": "alice"}, readEvent(t, bob))
}

func TestClient_OversizedFrameClosesConnection(t *testing.T) {
	_, url := newWsRoom(t)

	conn := dial(t, url)
	big := `{"type":"message","message":"` + strings.Repeat("x", maxMessageSize) + `"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected the server to close the connection")
}

func TestClient_ShutdownClosesSocket(t *testing.T) {
	room, url := newWsRoom(t)

	conn := dial(t, url)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"username","name":"alice"}`)))
	readEvent(t, conn)
	readEvent(t, conn)

	require.NoError(t, room.Shutdown(context.Background()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected a normal close frame, got %v", err)
}
