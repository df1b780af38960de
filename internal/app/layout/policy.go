// Package layout decides tile sizes and which remote streams land in which slot.
// Everything here is a pure function of its inputs.
package layout

import "github.com/dkeye/Classroom/internal/domain"

// Width is a CSS width relative to the video box.
type Width string

const (
	WidthFull  Width = "100%"
	WidthHalf  Width = "50%"
	WidthThird Width = "33.33%"
)

const (
	HeightTall   = 360
	HeightMedium = 180
	HeightShort  = 90
)

type TileSize struct {
	Width  Width `json:"width"`
	Height int   `json:"height"`
}

var (
	SizeTall  = TileSize{Width: WidthFull, Height: HeightTall}
	SizeWide  = TileSize{Width: WidthFull, Height: HeightMedium}
	SizeHalf  = TileSize{Width: WidthHalf, Height: HeightMedium}
	SizeThird = TileSize{Width: WidthThird, Height: HeightShort}
)

type Policy interface {
	// SelfTile sizes the local self-view. remoteCount is the length of the
	// whole remote collection, host stream included.
	SelfTile(role domain.Role, remoteCount int, hostStreamPresent bool) TileSize
	// PeerTile sizes each tile of a peer collection of the given length.
	PeerTile(peerCount int) TileSize
	HostTile() TileSize
}

// ClassroomPolicy is the default classroom layout.
type ClassroomPolicy struct{}

var _ Policy = ClassroomPolicy{}

func (ClassroomPolicy) SelfTile(role domain.Role, remoteCount int, hostStreamPresent bool) TileSize {
	if role.IsHost() || !hostStreamPresent {
		return collapse(remoteCount)
	}
	switch {
	case remoteCount <= 0:
		return SizeTall
	case remoteCount == 1:
		return SizeWide
	case remoteCount == 2:
		return SizeHalf
	default:
		return SizeThird
	}
}

func (ClassroomPolicy) PeerTile(peerCount int) TileSize {
	switch {
	case peerCount <= 1:
		return SizeWide
	case peerCount == 2:
		return SizeHalf
	default:
		return SizeThird
	}
}

func (ClassroomPolicy) HostTile() TileSize { return SizeTall }

// collapse is the two-step layout: tall alone, shorter once anyone joins.
func collapse(remoteCount int) TileSize {
	if remoteCount <= 0 {
		return SizeTall
	}
	return SizeWide
}
