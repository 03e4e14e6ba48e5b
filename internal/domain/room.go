package domain

import (
	"strings"
	"time"
)

type (
	RoomID   string
	JoinCode string
)

// CodeAlphabet leaves out characters that are easy to confuse when typed
// or read aloud (0/O, 1/I/L).
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Destruction reasons carried by room_destroyed.
const (
	ReasonCreatorDisconnected = "creator disconnected"
	ReasonCreatorLeft         = "creator left"
	ReasonExpired             = "expired due to inactivity"
)

// Room is a read-only snapshot of a room record.
type Room struct {
	ID               RoomID    `json:"id"`
	Code             JoinCode  `json:"code"`
	CreatorID        UserID    `json:"creatorId"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
	LastActivity     time.Time `json:"lastActivity"`
}

// NormalizeCode makes user-entered codes comparable with generated ones.
func NormalizeCode(raw string) JoinCode {
	return JoinCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// IdleFor reports whether the room has seen no activity for longer than timeout.
func (r Room) IdleFor(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.LastActivity) > timeout
}
