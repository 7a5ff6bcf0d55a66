package database

import (
	"context"

	"github.com/npezzotti/friends-room/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockTranscriptRepository struct {
	mock.Mock
}

func (m *MockTranscriptRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockTranscriptRepository) LoadTranscript(ctx context.Context, room string) ([]types.Message, error) {
	args := m.Called(ctx, room)
	if msgs, ok := args.Get(0).([]types.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockTranscriptRepository) SaveTranscript(ctx context.Context, room string, msgs []types.Message) error {
	// copy so later appends by the caller don't alter recorded arguments
	snapshot := append([]types.Message(nil), msgs...)
	args := m.Called(ctx, room, snapshot)
	return args.Error(0)
}
func (m *MockTranscriptRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
