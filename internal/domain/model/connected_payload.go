package model

// ConnectedPayload greets a freshly admitted connection before the initial
// stats snapshot is pushed.
type ConnectedPayload struct {
	ConnID     string `json:"conn_id"`
	ServerTime int64  `json:"server_time"`
}
