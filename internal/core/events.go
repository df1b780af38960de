package core

import "github.com/dkeye/Classroom/internal/domain"

// Event is the closed set of notifications an RTCClient emits.
type Event interface {
	Kind() string
	isEvent()
}

// Published reports that the local stream was published.
type Published struct{}

// StreamAdded reports a remote stream that can be subscribed to.
type StreamAdded struct {
	Stream RemoteStream
}

// StreamSubscribed reports a remote stream whose subscription completed.
type StreamSubscribed struct {
	Stream RemoteStream
}

// PeerLeft reports that a remote participant left the channel.
type PeerLeft struct {
	UID domain.StreamID
}

type MuteVideo struct {
	UID domain.StreamID
}

type UnmuteVideo struct {
	UID domain.StreamID
}

type MuteAudio struct {
	UID domain.StreamID
}

type UnmuteAudio struct {
	UID domain.StreamID
}

func (Published) Kind() string        { return "stream-published" }
func (StreamAdded) Kind() string      { return "stream-added" }
func (StreamSubscribed) Kind() string { return "stream-subscribed" }
func (PeerLeft) Kind() string         { return "peer-leave" }
func (MuteVideo) Kind() string        { return "mute-video" }
func (UnmuteVideo) Kind() string      { return "unmute-video" }
func (MuteAudio) Kind() string        { return "mute-audio" }
func (UnmuteAudio) Kind() string      { return "unmute-audio" }

func (Published) isEvent()        {}
func (StreamAdded) isEvent()      {}
func (StreamSubscribed) isEvent() {}
func (PeerLeft) isEvent()         {}
func (MuteVideo) isEvent()        {}
func (UnmuteVideo) isEvent()      {}
func (MuteAudio) isEvent()        {}
func (UnmuteAudio) isEvent()      {}

// MuteEvent builds the mute/unmute variant for a media kind.
// kind is "video" or "audio"; anything else yields nil.
func MuteEvent(uid domain.StreamID, kind string, muted bool) Event {
	switch {
	case kind == "video" && muted:
		return MuteVideo{UID: uid}
	case kind == "video":
		return UnmuteVideo{UID: uid}
	case kind == "audio" && muted:
		return MuteAudio{UID: uid}
	case kind == "audio":
		return UnmuteAudio{UID: uid}
	}
	return nil
}
