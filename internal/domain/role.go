package domain

import (
	"errors"
	"strings"
)

var ErrUnknownRole = errors.New("unknown participant role")

// Role is the identity a room member carries in its payload.
type Role string

const (
	RoleHost     Role = "host"
	RoleGuest    Role = "guest"
	RoleListener Role = "listener"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleGuest, RoleListener:
		return true
	}
	return false
}

func (r Role) IsHost() bool { return r == RoleHost }

func (r Role) String() string { return string(r) }
