package database

import (
	"encoding/json"
	"fmt"

	"github.com/npezzotti/friends-room/internal/types"
)

func encodeTranscript(msgs []types.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []types.Message{}
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}

	return data, nil
}

func decodeTranscript(data []byte) ([]types.Message, error) {
	msgs := make([]types.Message, 0)
	if len(data) == 0 {
		return msgs, nil
	}

	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	// a stored JSON null decodes to a nil slice
	if msgs == nil {
		msgs = make([]types.Message, 0)
	}

	return msgs, nil
}
