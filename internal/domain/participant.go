// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strconv"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrStreamIDZero    = errors.New("stream id must be non-zero")
)

// Participant is the local user of a classroom client.
type Participant struct {
	ID       StreamID `json:"id"`
	Username string   `json:"username"`
	Role     Role     `json:"identity"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
// An empty username falls back to the numeric id.
func NewParticipant(id StreamID, username string, role Role) (*Participant, error) {
	if id == 0 {
		return nil, ErrStreamIDZero
	}
	if !role.Valid() {
		return nil, ErrUnknownRole
	}
	if username == "" {
		username = strconv.FormatUint(uint64(id), 10)
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &Participant{ID: id, Username: username, Role: role}, nil
}
