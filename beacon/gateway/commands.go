package gateway

import (
	"context"

	"github.com/beacon-chat/beacon-go/beacon"
)

// UpdatePresence sends opcode 3.
func (s *Session) UpdatePresence(ctx context.Context, presence beacon.PresenceUpdate) error {
	return s.Send(ctx, beacon.OpPresenceUpdate, presence)
}

// UpdateVoiceState sends opcode 4.
func (s *Session) UpdateVoiceState(ctx context.Context, state beacon.VoiceStateUpdate) error {
	return s.Send(ctx, beacon.OpVoiceStateUpdate, state)
}

// RequestMemberChunks sends opcode 8.
func (s *Session) RequestMemberChunks(ctx context.Context, req beacon.RequestMemberChunks) error {
	return s.Send(ctx, beacon.OpRequestMemberChunks, req)
}

// SyncServers sends opcode 12, requesting the caller-driven sync the
// platform offers on top of the core dispatch stream.
func (s *Session) SyncServers(ctx context.Context, serverIDs []string) error {
	return s.Send(ctx, beacon.OpSyncServers, serverIDs)
}

// SyncCalls sends opcode 13.
func (s *Session) SyncCalls(ctx context.Context, channelIDs []string) error {
	return s.Send(ctx, beacon.OpSyncCalls, channelIDs)
}
