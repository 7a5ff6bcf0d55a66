package database

import (
	"context"
	"testing"

	"github.com/npezzotti/friends-room/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseRepository runs the behavior every TranscriptRepository must share.
func exerciseRepository(t *testing.T, repo TranscriptRepository, room string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx), "expected ping to succeed")

	t.Run("load before save is empty", func(t *testing.T) {
		msgs, err := repo.LoadTranscript(ctx, room+"-empty")
		assert.NoError(t, err)
		assert.NotNil(t, msgs, "expected empty transcript, not nil")
		assert.Empty(t, msgs)
	})

	t.Run("save replaces the whole transcript", func(t *testing.T) {
		first := []types.Message{
			{Username: "alice", Message: "hi", Timestamp: 1700000000000},
		}
		require.NoError(t, repo.SaveTranscript(ctx, room, first))

		got, err := repo.LoadTranscript(ctx, room)
		require.NoError(t, err)
		assert.Equal(t, first, got)

		second := append(first, types.Message{Username: "bob", Message: "hey", Timestamp: 1700000000500})
		require.NoError(t, repo.SaveTranscript(ctx, room, second))

		got, err = repo.LoadTranscript(ctx, room)
		require.NoError(t, err)
		assert.Equal(t, second, got, "expected transcript in append order")
	})

	t.Run("rooms are independent", func(t *testing.T) {
		other := []types.Message{{Username: "carol", Message: "elsewhere", Timestamp: 42}}
		require.NoError(t, repo.SaveTranscript(ctx, room+"-other", other))

		got, err := repo.LoadTranscript(ctx, room)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("save nil transcript", func(t *testing.T) {
		require.NoError(t, repo.SaveTranscript(ctx, room+"-nil", nil))

		got, err := repo.LoadTranscript(ctx, room+"-nil")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
