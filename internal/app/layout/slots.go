package layout

import "github.com/dkeye/Classroom/internal/domain"

// Identified is anything carrying a stream id: a remote entry, a tile.
type Identified interface {
	ID() domain.StreamID
}

// HostMember returns the first member whose identity is host.
func HostMember(members []domain.Member) (domain.Member, bool) {
	for _, m := range members {
		if m.Identity == domain.RoleHost {
			return m, true
		}
	}
	return domain.Member{}, false
}

// HostStream returns the remote stream published by the host member.
func HostStream[R Identified](remotes []R, members []domain.Member) (R, bool) {
	var zero R
	host, ok := HostMember(members)
	if !ok {
		return zero, false
	}
	for _, r := range remotes {
		if r.ID() == host.UserID {
			return r, true
		}
	}
	return zero, false
}

// PeerStreams returns remotes without the host's stream, in order.
// With no host member in the room every remote is a peer.
func PeerStreams[R Identified](remotes []R, members []domain.Member) []R {
	host, ok := HostMember(members)
	out := make([]R, 0, len(remotes))
	for _, r := range remotes {
		if ok && r.ID() == host.UserID {
			continue
		}
		out = append(out, r)
	}
	return out
}
