package core

import "github.com/dkeye/Classroom/internal/domain"

// RoomDirectory is the read-only room handle: the whiteboard room's member list.
// The classroom only uses it to find the host's user id.
type RoomDirectory interface {
	Members() []domain.Member
}

// MemberDirectory is a RoomDirectory that adapters can also write to.
type MemberDirectory interface {
	RoomDirectory
	Upsert(m domain.Member)
	Remove(id domain.StreamID) bool
	Replace(members []domain.Member)
	MemberCount() int
	Subscribe() (<-chan struct{}, func())
}
