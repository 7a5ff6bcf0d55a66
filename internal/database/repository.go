package database

import (
	"context"

	"github.com/npezzotti/friends-room/internal/types"
)

// TranscriptRepository persists the full transcript of a room as a single
// value. SaveTranscript replaces whatever was stored before.
type TranscriptRepository interface {
	Ping(ctx context.Context) error
	LoadTranscript(ctx context.Context, room string) ([]types.Message, error)
	SaveTranscript(ctx context.Context, room string, msgs []types.Message) error
	Close() error
}
