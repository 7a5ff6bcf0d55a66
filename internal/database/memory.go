package database

import (
	"context"
	"sync"

	"github.com/npezzotti/friends-room/internal/types"
)

// MemoryTranscriptRepository keeps encoded transcripts in process memory.
// Nothing survives a restart.
type MemoryTranscriptRepository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryTranscriptRepository() *MemoryTranscriptRepository {
	return &MemoryTranscriptRepository{
		data: make(map[string][]byte),
	}
}

func (db *MemoryTranscriptRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (db *MemoryTranscriptRepository) LoadTranscript(ctx context.Context, room string) ([]types.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return decodeTranscript(db.data[room])
}

func (db *MemoryTranscriptRepository) SaveTranscript(ctx context.Context, room string, msgs []types.Message) error {
	data, err := encodeTranscript(msgs)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[room] = data

	return nil
}

func (db *MemoryTranscriptRepository) Close() error {
	return nil
}
