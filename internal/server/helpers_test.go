package server

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/npezzotti/friends-room/internal/database"
	"github.com/npezzotti/friends-room/internal/stats"
	"github.com/npezzotti/friends-room/internal/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testConn records every frame sent to it. Sends fail once failSend is set
// or the conn has been closed.
type testConn struct {
	mu       sync.Mutex
	frames   [][]byte
	failSend bool
	closed   bool
	sends    int
}

func (c *testConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sends++
	if c.failSend || c.closed {
		return ErrConnClosed
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *testConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *testConn) setFailSend(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSend = fail
}

func (c *testConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *testConn) sendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sends
}

// received decodes all frames so far into generic maps.
func (c *testConn) received(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(f, &ev), "expected frame to be valid JSON")
		events = append(events, ev)
	}
	return events
}

func (c *testConn) receivedTypes(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, ev := range c.received(t) {
		out = append(out, ev["type"].(string))
	}
	return out
}

func (c *testConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func newTestStats() *stats.MockStatsUpdater {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()
	su.On("RegisterMetric", mock.Anything).Maybe()
	return su
}

// newTestRoom returns a room that is not running; tests drive its
// handlers directly. The clock ticks one second per message.
func newTestRoom(t *testing.T, db database.TranscriptRepository) *Room {
	r := newRoom("test-room", db, newTestStats(), testutil.TestLogger(t))

	var ticks int64
	r.clock = func() time.Time {
		ticks++
		return time.UnixMilli(1700000000000 + ticks*1000)
	}
	return r
}

func openTestSession(r *Room) (*Session, *testConn) {
	conn := &testConn{}
	s := newSession(conn)
	r.handleOpen(s)
	return s, conn
}

func send(r *Room, s *Session, raw string) {
	r.handleReceive(s, []byte(raw))
}
