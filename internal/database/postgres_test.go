package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPgTranscriptRepository(t *testing.T) {
	dsn := os.Getenv("FRIENDSROOM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("FRIENDSROOM_TEST_PG_DSN not set")
	}

	repo, err := NewPgTranscriptRepository(dsn)
	require.NoError(t, err, "expected postgres repository to connect")
	defer repo.Close()

	exerciseRepository(t, repo, "test-"+t.Name())
}
