package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/npezzotti/friends-room/internal/database"
	"github.com/npezzotti/friends-room/internal/stats"
)

var ErrServerClosed = errors.New("chat server closed")

// ChatServer maps a room name to its single Room instance. Rooms are
// created on first use and live until Shutdown.
type ChatServer struct {
	log       *log.Logger
	db        database.TranscriptRepository
	stats     stats.StatsProvider
	rooms     map[string]*Room
	roomsLock sync.Mutex
	closed    bool
}

func NewChatServer(logger *log.Logger, db database.TranscriptRepository, su stats.StatsProvider) (*ChatServer, error) {
	if db == nil {
		return nil, errors.New("transcript repository is required")
	}

	su.RegisterMetric(stats.NumActiveClients)
	su.RegisterMetric(stats.NumActiveRooms)
	su.RegisterMetric(stats.TotalMessages)
	su.RegisterMetric(stats.TotalEvictions)

	return &ChatServer{
		log:   logger,
		db:    db,
		stats: su,
		rooms: make(map[string]*Room),
	}, nil
}

// GetRoom returns the room called name, starting it if needed.
func (cs *ChatServer) GetRoom(name string) (*Room, error) {
	cs.roomsLock.Lock()
	defer cs.roomsLock.Unlock()

	if cs.closed {
		return nil, ErrServerClosed
	}

	if r, ok := cs.rooms[name]; ok {
		return r, nil
	}

	r := newRoom(name, cs.db, cs.stats, cs.log)
	cs.rooms[name] = r
	go r.start()
	cs.stats.Incr(stats.NumActiveRooms)

	return r, nil
}

// Shutdown stops every room. No new rooms can be created afterwards.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")

	cs.roomsLock.Lock()
	cs.closed = true
	rooms := make([]*Room, 0, len(cs.rooms))
	for _, r := range cs.rooms {
		rooms = append(rooms, r)
	}
	clear(cs.rooms)
	cs.roomsLock.Unlock()

	var errs []error
	for _, r := range rooms {
		cs.log.Println("shutting down room", r.name)
		if err := r.Shutdown(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		cs.stats.Decr(stats.NumActiveRooms)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown rooms: %w", err)
	}

	return nil
}
