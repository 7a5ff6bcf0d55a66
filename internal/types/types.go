package types

// Message is one accepted chat message in a room transcript. Timestamp is
// in epoch milliseconds.
type Message struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
