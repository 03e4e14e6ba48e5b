package core

import "github.com/dkeye/Murmur/internal/domain"

// Outbound event type discriminators.
const (
	EventNewMessage    = "new_message"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventRoomDestroyed = "room_destroyed"
)

type NewMessage struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type UserJoined struct {
	Type     string        `json:"type"`
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type UserLeft struct {
	Type     string        `json:"type"`
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type RoomDestroyed struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
	Reason string        `json:"reason"`
}

func NewMessageEvent(m domain.Message) NewMessage {
	return NewMessage{Type: EventNewMessage, Message: m}
}

func UserJoinedEvent(room domain.RoomID, u domain.User) UserJoined {
	return UserJoined{Type: EventUserJoined, RoomID: room, UserID: u.ID, Username: u.Username}
}

func UserLeftEvent(room domain.RoomID, u domain.User) UserLeft {
	return UserLeft{Type: EventUserLeft, RoomID: room, UserID: u.ID, Username: u.Username}
}

func RoomDestroyedEvent(room domain.RoomID, reason string) RoomDestroyed {
	return RoomDestroyed{Type: EventRoomDestroyed, RoomID: room, Reason: reason}
}
