package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/npezzotti/friends-room/internal/types"
)

// Inbound event types.
const (
	TypeUsername       = "username"
	TypeChangeUsername = "changeUsername"
	TypeMessage        = "message"
)

// Outbound event types.
const (
	TypeHistory = "history"
	TypeJoin    = "join"
	TypeRename  = "rename"
	TypeChat    = "chat"
	TypeLeave   = "leave"
	TypeError   = "error"
)

var (
	errUnknownType  = errors.New("unknown message type")
	errMissingName  = errors.New("missing name")
	errMissingInput = errors.New("missing message")
)

// ClientMessage is a frame received from a participant. Name is set for
// username and changeUsername, Message for message.
type ClientMessage struct {
	Type    string  `json:"type"`
	Name    *string `json:"name,omitempty"`
	Message *string `json:"message,omitempty"`
}

// parseClientMessage decodes and validates one inbound frame.
func parseClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	switch msg.Type {
	case TypeUsername, TypeChangeUsername:
		if msg.Name == nil || strings.TrimSpace(*msg.Name) == "" {
			return nil, errMissingName
		}
	case TypeMessage:
		if msg.Message == nil {
			return nil, errMissingInput
		}
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, msg.Type)
	}

	return &msg, nil
}

type HistoryEvent struct {
	Type     string          `json:"type"`
	Messages []types.Message `json:"messages"`
}

type JoinEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type RenameEvent struct {
	Type    string `json:"type"`
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// ChatEvent flattens the message fields next to the type discriminator.
type ChatEvent struct {
	Type string `json:"type"`
	types.Message
}

type LeaveEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ErrorEvent is only ever sent to the session whose request failed.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewHistory(msgs []types.Message) *HistoryEvent {
	if msgs == nil {
		msgs = []types.Message{}
	}
	return &HistoryEvent{Type: TypeHistory, Messages: msgs}
}

func NewJoin(name string) *JoinEvent {
	return &JoinEvent{Type: TypeJoin, Name: name}
}

func NewRename(oldName, newName string) *RenameEvent {
	return &RenameEvent{Type: TypeRename, OldName: oldName, NewName: newName}
}

func NewChat(msg types.Message) *ChatEvent {
	return &ChatEvent{Type: TypeChat, Message: msg}
}

func NewLeave(name string) *LeaveEvent {
	return &LeaveEvent{Type: TypeLeave, Name: name}
}

func ErrHistoryUnavailable() *ErrorEvent {
	return &ErrorEvent{Type: TypeError, Error: "history unavailable"}
}

func ErrMessageNotSaved() *ErrorEvent {
	return &ErrorEvent{Type: TypeError, Error: "message not saved"}
}

func serializeMessage(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Now returns the current time at the millisecond precision stored in the
// transcript.
func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
