package resources

import "github.com/beacon-chat/beacon-go/beacon"

// Presence is the domain-facing view of a member's presence: the wire
// contract the gateway core carries opaquely (beacon.PresenceUpdate) plus
// the identifiers a consumer actually wants to key a cache on.
type Presence struct {
	ServerID   Snowflake
	UserID     Snowflake
	Status     beacon.PresenceStatus
	Activities []Activity
}

// Activity is the minimum activity shape a presence consumer cares about;
// anything richer stays in the opaque payload the gateway core passes
// through untouched.
type Activity struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}
