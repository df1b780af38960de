// Package render turns session state and the room roster into the tree of
// tiles a view paints. It owns no state and makes no SDK calls.
package render

import (
	"github.com/dkeye/Classroom/internal/app/layout"
	"github.com/dkeye/Classroom/internal/app/session"
	"github.com/dkeye/Classroom/internal/domain"
)

type Slot string

const (
	SlotHost Slot = "host"
	SlotSelf Slot = "self"
	SlotPeer Slot = "peer"
)

type Tile struct {
	Slot      Slot            `json:"slot"`
	StreamID  domain.StreamID `json:"streamId"`
	ElementID string          `json:"elementId"`
	Size      layout.TileSize `json:"size"`
	VideoOn   bool            `json:"videoOn"`
	AudioOn   bool            `json:"audioOn"`
}

func (t Tile) ID() domain.StreamID { return t.StreamID }

// Tree is one frame of the classroom view.
type Tree struct {
	Active         bool   `json:"active"`
	Fullscreen     bool   `json:"fullscreen"`
	OverlayVisible bool   `json:"overlayVisible"`
	Role           string `json:"role"`
	Host           *Tile  `json:"host,omitempty"`
	Self           *Tile  `json:"self,omitempty"`
	Peers          []Tile `json:"peers"`
}

// Tiles returns every tile in paint order: host, self, peers.
func (t Tree) Tiles() []Tile {
	out := make([]Tile, 0, len(t.Peers)+2)
	if t.Host != nil {
		out = append(out, *t.Host)
	}
	if t.Self != nil {
		out = append(out, *t.Self)
	}
	return append(out, t.Peers...)
}

type Composer struct {
	policy layout.Policy
}

func NewComposer(policy layout.Policy) Composer {
	if policy == nil {
		policy = layout.ClassroomPolicy{}
	}
	return Composer{policy: policy}
}

// Compose builds the tree with the default classroom policy.
func Compose(state session.State, members []domain.Member, role domain.Role) Tree {
	return NewComposer(nil).Compose(state, members, role)
}

func (c Composer) Compose(state session.State, members []domain.Member, role domain.Role) Tree {
	tree := Tree{
		Active:         state.Active,
		Fullscreen:     state.Fullscreen,
		OverlayVisible: state.OverlayVisible,
		Role:           role.String(),
		Peers:          []Tile{},
	}

	host, hostPresent := layout.HostStream(state.Remotes, members)
	if hostPresent {
		t := remoteTile(SlotHost, host, c.policy.HostTile())
		tree.Host = &t
	}

	if state.Local != nil {
		tree.Self = &Tile{
			Slot:      SlotSelf,
			StreamID:  state.Local.StreamID,
			ElementID: session.LocalElementID,
			Size:      c.policy.SelfTile(role, len(state.Remotes), hostPresent),
			VideoOn:   state.Local.Media.VideoOn,
			AudioOn:   state.Local.Media.AudioOn,
		}
	}

	peers := layout.PeerStreams(state.Remotes, members)
	size := c.policy.PeerTile(len(peers))
	for _, p := range peers {
		tree.Peers = append(tree.Peers, remoteTile(SlotPeer, p, size))
	}
	return tree
}

func remoteTile(slot Slot, r session.RemoteEntry, size layout.TileSize) Tile {
	return Tile{
		Slot:      slot,
		StreamID:  r.StreamID,
		ElementID: session.RemoteElementID(r.StreamID),
		Size:      size,
		VideoOn:   r.Media.VideoOn,
		AudioOn:   r.Media.AudioOn,
	}
}
