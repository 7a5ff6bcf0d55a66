package server

import (
	"github.com/teris-io/shortid"
)

// Conn is the outbound half of a participant's connection. Send must not
// block; an error means the peer is gone.
type Conn interface {
	Send(data []byte) error
	Close() error
}

type sessionState int

const (
	sessionOpening sessionState = iota
	sessionRegistered
	sessionEvicted
	sessionClosed
)

func (s sessionState) String() string {
	switch s {
	case sessionOpening:
		return "opening"
	case sessionRegistered:
		return "registered"
	case sessionEvicted:
		return "evicted"
	case sessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the room's record of one live connection. All fields are
// owned by the room goroutine.
type Session struct {
	id    string
	conn  Conn
	name  string
	named bool
	// pending holds serialized events broadcast while the session was
	// anonymous. It is empty once the session is named.
	pending [][]byte
	// pendingChats counts the chat events in pending. Those are always
	// the newest entries of the room transcript.
	pendingChats int
	state        sessionState
}

func newSession(conn Conn) *Session {
	id, err := shortid.Generate()
	if err != nil {
		id = "unknown"
	}

	return &Session{
		id:   id,
		conn: conn,
	}
}

func (s *Session) Id() string {
	return s.id
}

// label is used in log lines.
func (s *Session) label() string {
	if s.named {
		return s.id + "/" + s.name
	}
	return s.id
}
