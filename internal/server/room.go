package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/npezzotti/friends-room/internal/database"
	"github.com/npezzotti/friends-room/internal/stats"
	"github.com/npezzotti/friends-room/internal/types"
)

const (
	eventQueueSize = 256
	storeTimeout   = 5 * time.Second
)

type eventKind int

const (
	eventOpen eventKind = iota
	eventReceive
	eventClose
)

type roomEvent struct {
	kind    eventKind
	session *Session
	raw     []byte
}

// Room coordinates every session attached to one named room. A single
// goroutine (start) owns the session registry and the transcript; the
// exported methods only enqueue events for it, so each event runs to
// completion before the next one starts.
type Room struct {
	name  string
	db    database.TranscriptRepository
	stats stats.StatsProvider
	log   *log.Logger

	// sessions is kept in registration order, which is the fan-out order.
	sessions   []*Session
	transcript []types.Message
	hydrated   bool

	events   chan roomEvent
	exit     chan struct{}
	exitOnce sync.Once
	done     chan struct{}

	clock        func() time.Time
	storeTimeout time.Duration
}

func newRoom(name string, db database.TranscriptRepository, su stats.StatsProvider, logger *log.Logger) *Room {
	return &Room{
		name:         name,
		db:           db,
		stats:        su,
		log:          logger,
		events:       make(chan roomEvent, eventQueueSize),
		exit:         make(chan struct{}),
		done:         make(chan struct{}),
		clock:        Now,
		storeTimeout: storeTimeout,
	}
}

func (r *Room) Name() string {
	return r.name
}

// Open registers a new anonymous session for conn.
func (r *Room) Open(conn Conn) *Session {
	s := newSession(conn)
	r.enqueue(roomEvent{kind: eventOpen, session: s})
	return s
}

// Receive hands one raw inbound frame from s to the room.
func (r *Room) Receive(s *Session, raw []byte) {
	r.enqueue(roomEvent{kind: eventReceive, session: s, raw: raw})
}

// Close reports that the connection behind s has gone away.
func (r *Room) Close(s *Session) {
	r.enqueue(roomEvent{kind: eventClose, session: s})
}

// Shutdown stops the room goroutine and closes every registered
// connection. It waits until the room has exited or ctx is done.
func (r *Room) Shutdown(ctx context.Context) error {
	r.exitOnce.Do(func() { close(r.exit) })

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("room %q shutdown: %w", r.name, ctx.Err())
	}
}

// enqueue blocks until the event is accepted; events for a stopped room
// are dropped.
func (r *Room) enqueue(ev roomEvent) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.name)
	defer close(r.done)

	for {
		select {
		case ev := <-r.events:
			r.handleEvent(ev)
		case <-r.exit:
			r.handleRoomExit()
			return
		}
	}
}

func (r *Room) handleEvent(ev roomEvent) {
	switch ev.kind {
	case eventOpen:
		r.handleOpen(ev.session)
	case eventReceive:
		r.handleReceive(ev.session, ev.raw)
	case eventClose:
		r.handleClose(ev.session)
	}
}

func (r *Room) handleRoomExit() {
	r.log.Printf("room %q is exiting, closing %d sessions", r.name, len(r.sessions))
	for _, s := range r.sessions {
		s.state = sessionClosed
		s.pending = nil
		s.pendingChats = 0
		s.conn.Close()
		r.stats.Decr(stats.NumActiveClients)
	}
	r.sessions = nil
}

func (r *Room) handleOpen(s *Session) {
	if s.state != sessionOpening {
		return
	}

	s.state = sessionRegistered
	r.sessions = append(r.sessions, s)
	r.stats.Incr(stats.NumActiveClients)
	r.log.Printf("session %s opened in room %q, %d sessions", s.label(), r.name, len(r.sessions))
}

// handleReceive parses raw and applies it. Malformed frames are logged
// and dropped; the sender gets no reply and stays connected.
func (r *Room) handleReceive(s *Session, raw []byte) {
	if s.state != sessionRegistered {
		r.log.Printf("ignoring message from %s session %s", s.state, s.label())
		return
	}

	msg, err := parseClientMessage(raw)
	if err != nil {
		r.log.Printf("discarding message from session %s: %v", s.label(), err)
		return
	}

	switch msg.Type {
	case TypeUsername, TypeChangeUsername:
		r.handleSetUsername(s, *msg.Name)
	case TypeMessage:
		r.handlePostMessage(s, *msg.Message)
	}
}

// handleSetUsername joins an anonymous session under name, or renames a
// named one. Both inbound username types go through here.
func (r *Room) handleSetUsername(s *Session, name string) {
	if s.named {
		r.handleRename(s, name)
		return
	}

	r.handleJoin(s, name)
}

func (r *Room) handleJoin(s *Session, name string) {
	if err := r.hydrate(); err != nil {
		r.log.Printf("join %s: %v", s.label(), err)
		r.sendDirect(s, ErrHistoryUnavailable())
		return
	}

	s.name = name
	s.named = true
	pending := s.pending
	// chats still queued in pending are left out of the snapshot so each
	// message reaches the session exactly once
	history := r.transcript[:len(r.transcript)-min(s.pendingChats, len(r.transcript))]
	s.pending = nil
	s.pendingChats = 0

	if !r.sendDirect(s, NewHistory(history)) {
		return
	}

	for _, data := range pending {
		if !r.deliver(s, data) {
			return
		}
	}

	r.log.Printf("session %s joined room %q (%d buffered events flushed)", s.label(), r.name, len(pending))
	r.broadcast(NewJoin(name))
}

func (r *Room) handleRename(s *Session, name string) {
	oldName := s.name
	s.name = name

	r.log.Printf("session %s renamed from %q in room %q", s.label(), oldName, r.name)
	r.broadcast(NewRename(oldName, name))
}

// handlePostMessage appends a chat message, persists the whole transcript
// and only then broadcasts it. A failed save rolls the append back.
func (r *Room) handlePostMessage(s *Session, text string) {
	if !s.named {
		r.log.Printf("dropping message from anonymous session %s", s.label())
		return
	}

	msg := types.Message{
		Username:  s.name,
		Message:   text,
		Timestamp: r.clock().UnixMilli(),
	}

	r.transcript = append(r.transcript, msg)
	if err := r.persist(); err != nil {
		r.transcript = r.transcript[:len(r.transcript)-1]
		r.log.Printf("save transcript for room %q: %v", r.name, err)
		r.sendDirect(s, ErrMessageNotSaved())
		return
	}

	r.stats.Incr(stats.TotalMessages)
	r.broadcast(NewChat(msg))
}

// handleClose announces a named session's departure to the room before
// removing it. Evicted sessions leave silently.
func (r *Room) handleClose(s *Session) {
	switch s.state {
	case sessionOpening, sessionClosed:
		return
	case sessionEvicted:
		s.state = sessionClosed
		return
	}

	if s.named {
		r.broadcast(NewLeave(s.name))
	}

	// the leave broadcast may already have evicted s
	if s.state == sessionRegistered {
		r.removeSession(s)
		r.stats.Decr(stats.NumActiveClients)
	}

	s.state = sessionClosed
	s.pending = nil
	s.pendingChats = 0
	r.log.Printf("session %s closed in room %q, %d sessions", s.label(), r.name, len(r.sessions))
}

// hydrate loads the persisted transcript the first time it is needed.
// A failed load is retried on the next call.
func (r *Room) hydrate() error {
	if r.hydrated {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.storeTimeout)
	defer cancel()

	msgs, err := r.db.LoadTranscript(ctx, r.name)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	r.transcript = msgs
	r.hydrated = true
	r.log.Printf("loaded %d messages for room %q", len(msgs), r.name)

	return nil
}

func (r *Room) persist() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.storeTimeout)
	defer cancel()

	return r.db.SaveTranscript(ctx, r.name, r.transcript)
}
