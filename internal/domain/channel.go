package domain

import "errors"

const MaxChannelLen = 64

var (
	ErrChannelEmpty   = errors.New("channel empty")
	ErrChannelTooLong = errors.New("channel too long")
)

// ChannelID names an RTC SDK session; join, publish and subscribe are scoped to it.
type ChannelID string

func NewChannelID(s string) (ChannelID, error) {
	if len(s) == 0 {
		return "", ErrChannelEmpty
	}
	if len(s) > MaxChannelLen {
		return "", ErrChannelTooLong
	}
	return ChannelID(s), nil
}

func (c ChannelID) String() string { return string(c) }
