package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/npezzotti/friends-room/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteTranscriptRepository(t *testing.T) {
	repo, err := NewSqliteTranscriptRepository(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err, "expected sqlite repository to open")
	defer repo.Close()

	exerciseRepository(t, repo, "friends-room")
}

func TestSqliteTranscriptRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	msgs := []types.Message{{Username: "alice", Message: "still here", Timestamp: 1700000000000}}

	repo, err := NewSqliteTranscriptRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.SaveTranscript(context.Background(), "friends-room", msgs))
	require.NoError(t, repo.Close())

	// migrations must be a no-op on an existing schema
	repo, err = NewSqliteTranscriptRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.LoadTranscript(context.Background(), "friends-room")
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
}

func TestNewSqliteTranscriptRepository_EmptyPath(t *testing.T) {
	repo, err := NewSqliteTranscriptRepository("  ")
	assert.Error(t, err)
	assert.Nil(t, repo)
}
