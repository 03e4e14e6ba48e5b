package domain

import "errors"

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")

	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotAMember         = errors.New("not a member")
	ErrCodeSpaceExhausted = errors.New("join code space exhausted")
	ErrInvalidMessage     = errors.New("invalid message")
)
