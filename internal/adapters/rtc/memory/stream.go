package memory

import (
	"context"
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
)

// LocalStream is a capture handle with no devices behind it.
type LocalStream struct {
	cfg core.StreamConfig

	mu      sync.Mutex
	inited  bool
	closed  bool
	element string
	media   domain.MediaState
	client  *Client
}

var (
	_ core.LocalStream  = (*LocalStream)(nil)
	_ core.MediaToggler = (*LocalStream)(nil)
)

func (s *LocalStream) ID() domain.StreamID { return s.cfg.StreamID }

func (s *LocalStream) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.inited = true
	return nil
}

func (s *LocalStream) Play(elementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.element = elementID
	return nil
}

func (s *LocalStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.element = ""
}

func (s *LocalStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.inited = false
	s.element = ""
}

// Element is the view element the stream is playing into, if any.
func (s *LocalStream) Element() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.element
}

func (s *LocalStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *LocalStream) Media() domain.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}

// SetVideo toggles the video track and tells the channel.
func (s *LocalStream) SetVideo(on bool) { s.set("video", on) }

// SetAudio toggles the audio track and tells the channel.
func (s *LocalStream) SetAudio(on bool) { s.set("audio", on) }

func (s *LocalStream) set(kind string, on bool) {
	s.mu.Lock()
	before := s.media
	if kind == "video" {
		s.media.VideoOn = on
	} else {
		s.media.AudioOn = on
	}
	changed := before != s.media
	c := s.client
	s.mu.Unlock()
	if changed && c != nil {
		c.mute(kind, !on)
	}
}

func (s *LocalStream) attach(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

// RemoteStream is a subscriber's view of another client's published stream.
type RemoteStream struct {
	id domain.StreamID

	mu      sync.Mutex
	element string
}

var _ core.RemoteStream = (*RemoteStream)(nil)

func newRemoteStream(id domain.StreamID) *RemoteStream {
	return &RemoteStream{id: id}
}

func (s *RemoteStream) ID() domain.StreamID { return s.id }

func (s *RemoteStream) Play(elementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.element = elementID
	return nil
}

func (s *RemoteStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.element = ""
}

func (s *RemoteStream) Element() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.element
}
