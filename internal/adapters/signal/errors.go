package signal

import (
	"errors"

	"github.com/dkeye/Murmur/internal/domain"
)

var (
	errBadPayload  = errors.New("bad payload")
	errUnknownType = errors.New("unknown type")
	errRateLimited = errors.New("too many join attempts")
)

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEvent struct {
	Type    string     `json:"type"`
	Request string     `json:"request,omitempty"`
	Error   *wireError `json:"error"`
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		return "code_space_exhausted"
	case errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		return "invalid_name"
	case errors.Is(err, domain.ErrInvalidMessage):
		return "invalid_message"
	case errors.Is(err, errBadPayload):
		return "bad_payload"
	case errors.Is(err, errRateLimited):
		return "rate_limited"
	case errors.Is(err, errUnknownType):
		return "unknown_type"
	}
	return "internal"
}

func toWireError(err error) *wireError {
	return &wireError{Code: errorCode(err), Message: err.Error()}
}
