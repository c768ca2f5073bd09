package beacon

import json "github.com/goccy/go-json"

// Gateway opcodes, per the wire frame's "op" field.
const (
	OpDispatch            = 0
	OpHeartbeat           = 1
	OpIdentify            = 2
	OpPresenceUpdate      = 3
	OpVoiceStateUpdate    = 4
	OpResume              = 6
	OpReconnect           = 7
	OpRequestMemberChunks = 8
	OpInvalidateSession   = 9
	OpHello               = 10
	OpHeartbeatAck        = 11
	OpSyncServers         = 12
	OpSyncCalls           = 13
)

// IdentifyConnectionProperties mirrors the minimum recognized "properties"
// object of an Identify payload.
type IdentifyConnectionProperties struct {
	OS      string `json:"$os"`
	Browser string `json:"$browser"`
	Device  string `json:"$device"`
}

// Identify is the frozen payload replayed verbatim on every (re)identify.
type Identify struct {
	Token           string                        `json:"token"`
	Properties      IdentifyConnectionProperties `json:"properties"`
	LargeThreshold  int                           `json:"large_threshold,omitempty"`
	Compress        bool                          `json:"compress,omitempty"`
	Version         int                           `json:"v,omitempty"`
	Shard           *[2]int                       `json:"shard,omitempty"`
	Intents         uint64                        `json:"intents,omitempty"`
	Presence        *PresenceUpdate               `json:"presence,omitempty"`
}

// Resume is sent to reattach to an existing session.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

// Heartbeat carries the last observed sequence number, or nil before any
// dispatch has been seen.
type Heartbeat struct {
	Seq *int64 `json:"d"`
}

// MarshalJSON renders the complete opcode-1 frame, {"op":1,"d":<seq or null>}.
func (h Heartbeat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op  int    `json:"op"`
		Seq *int64 `json:"d"`
	}{Op: OpHeartbeat, Seq: h.Seq})
}

// PresenceStatus is one of the four values the platform recognizes;
// "offline" is coerced to StatusInvisible at construction time.
type PresenceStatus string

const (
	StatusOnline    PresenceStatus = "online"
	StatusIdle      PresenceStatus = "idle"
	StatusDND       PresenceStatus = "dnd"
	StatusInvisible PresenceStatus = "invisible"
)

// NewPresenceStatus normalizes a caller-supplied status string, coercing the
// non-wire value "offline" to "invisible" per the documented wire contract.
func NewPresenceStatus(s string) PresenceStatus {
	if s == "offline" {
		return StatusInvisible
	}

	switch PresenceStatus(s) {
	case StatusOnline, StatusIdle, StatusDND, StatusInvisible:
		return PresenceStatus(s)
	default:
		return StatusOnline
	}
}

// PresenceUpdate is the opcode-3 payload.
type PresenceUpdate struct {
	AFK    bool           `json:"afk"`
	Since  *int64         `json:"since"`
	Status PresenceStatus `json:"status"`
	Game   any            `json:"game"`
}

// VoiceStateUpdate is the opcode-4 payload.
type VoiceStateUpdate struct {
	ServerID  string  `json:"server_id"`
	ChannelID *string `json:"channel_id"`
	SelfMute  bool    `json:"self_mute"`
	SelfDeaf  bool    `json:"self_deaf"`
}

// RequestMemberChunks is the opcode-8 payload.
type RequestMemberChunks struct {
	ServerID  string   `json:"server_id"`
	Query     string   `json:"query,omitempty"`
	Limit     int      `json:"limit"`
	Presences bool     `json:"presences,omitempty"`
	UserIDs   []string `json:"user_ids,omitempty"`
	Nonce     string   `json:"nonce,omitempty"`
}

// Hello is the opcode-10 payload.
type Hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// InvalidateSession is the opcode-9 payload: a single boolean hint which,
// per documented behavior, is never honored (every Invalidate is treated as
// non-resumable).
type InvalidateSession bool
