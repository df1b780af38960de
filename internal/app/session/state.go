package session

import (
	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
)

// LocalElementID is the view element the local stream plays into.
const LocalElementID = "rtc_local_stream"

// RemoteElementID is the view element a remote stream plays into.
func RemoteElementID(id domain.StreamID) string {
	return "rtc_remote_stream_" + id.String()
}

type LocalEntry struct {
	Stream   core.LocalStream  `json:"-"`
	StreamID domain.StreamID   `json:"id"`
	Media    domain.MediaState `json:"media"`
}

type RemoteEntry struct {
	Stream   core.RemoteStream `json:"-"`
	StreamID domain.StreamID   `json:"id"`
	Media    domain.MediaState `json:"media"`
}

func (e RemoteEntry) ID() domain.StreamID { return e.StreamID }

// State is what a renderer needs to draw the classroom.
type State struct {
	Active         bool          `json:"active"`
	OverlayVisible bool          `json:"overlayVisible"`
	Fullscreen     bool          `json:"fullscreen"`
	Local          *LocalEntry   `json:"local,omitempty"`
	Remotes        []RemoteEntry `json:"remotes"`
}

func (s State) clone() State {
	out := s
	if s.Local != nil {
		l := *s.Local
		out.Local = &l
	}
	out.Remotes = make([]RemoteEntry, len(s.Remotes))
	copy(out.Remotes, s.Remotes)
	return out
}

func (s State) remoteIndex(id domain.StreamID) int {
	for i, r := range s.Remotes {
		if r.StreamID == id {
			return i
		}
	}
	return -1
}
