package server

import (
	"slices"

	"github.com/npezzotti/friends-room/internal/stats"
)

// broadcast serializes v once and fans it out in registration order.
// Named sessions get it now; anonymous sessions queue it until they join.
// A failed send evicts the session on the spot.
func (r *Room) broadcast(v any) {
	data, err := serializeMessage(v)
	if err != nil {
		r.log.Printf("serialize broadcast for room %q: %v", r.name, err)
		return
	}

	_, isChat := v.(*ChatEvent)

	r.log.Printf("broadcast to room %q: %s", r.name, data)
	for _, s := range slices.Clone(r.sessions) {
		if s.state != sessionRegistered {
			continue
		}

		if !s.named {
			s.pending = append(s.pending, data)
			if isChat {
				s.pendingChats++
			}
			continue
		}

		r.deliver(s, data)
	}
}

// sendDirect delivers v to s alone, bypassing the pending queue.
func (r *Room) sendDirect(s *Session, v any) bool {
	data, err := serializeMessage(v)
	if err != nil {
		r.log.Printf("serialize message for session %s: %v", s.label(), err)
		return true
	}

	return r.deliver(s, data)
}

// deliver reports whether s is still attached after the send.
func (r *Room) deliver(s *Session, data []byte) bool {
	if err := s.conn.Send(data); err != nil {
		r.evict(s, err)
		return false
	}

	return true
}

// evict drops s from the registry and closes its connection. Evicting a
// session that is no longer registered does nothing.
func (r *Room) evict(s *Session, cause error) {
	if s.state != sessionRegistered {
		return
	}

	r.log.Printf("evicting session %s from room %q: %v", s.label(), r.name, cause)
	r.removeSession(s)
	s.state = sessionEvicted
	s.pending = nil
	s.pendingChats = 0
	s.conn.Close()

	r.stats.Decr(stats.NumActiveClients)
	r.stats.Incr(stats.TotalEvictions)
}

func (r *Room) removeSession(s *Session) {
	r.sessions = slices.DeleteFunc(r.sessions, func(other *Session) bool {
		return other == s
	})
}
