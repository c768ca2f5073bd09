package gateway

import json "github.com/goccy/go-json"

// Event is one semantic dispatch yielded by Session.NextEvent. The core
// does not interpret payloads beyond routing: Name and Data are handed to
// an external domain layer verbatim.
type Event struct {
	Name     string
	Sequence int64
	Data     json.RawMessage
}

const (
	eventReady   = "READY"
	eventResumed = "RESUMED"

	// eventVoiceStateUpdate and eventVoiceServerUpdate are the two dispatch
	// names that seed the voice subsystem. The core duplicates dispatches
	// carrying either name onto Session.VoiceEvents in addition to
	// returning them from NextEvent as usual.
	eventVoiceStateUpdate  = "VOICE_STATE_UPDATE"
	eventVoiceServerUpdate = "VOICE_SERVER_UPDATE"
)

// readyPayload is the minimum shape the handshake needs out of a READY
// dispatch; everything else in the payload is opaque to the core.
type readyPayload struct {
	SessionID string `json:"session_id"`
}
