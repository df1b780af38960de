package pion

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

var ErrStreamClosed = errors.New("stream closed")

// LocalStream owns the outgoing sample tracks. Encoded frames reach them
// through WriteSample, from the configured Capture files when there are any.
type LocalStream struct {
	cfg      core.StreamConfig
	capture  Capture
	stopFeed context.CancelFunc

	mu      sync.Mutex
	video   *webrtc.TrackLocalStaticSample
	audio   *webrtc.TrackLocalStaticSample
	element string
	playing bool
	closed  bool
	media   domain.MediaState
	client  *Client
}

var (
	_ core.LocalStream  = (*LocalStream)(nil)
	_ core.MediaToggler = (*LocalStream)(nil)
)

func newLocalStream(cfg core.StreamConfig, capture Capture) *LocalStream {
	return &LocalStream{
		cfg:     cfg,
		capture: capture,
		media:   domain.MediaState{VideoOn: cfg.Video, AudioOn: cfg.Audio},
	}
}

func (s *LocalStream) ID() domain.StreamID { return s.cfg.StreamID }

// Init creates the H264 and Opus tracks the config asks for and starts
// the capture feed.
func (s *LocalStream) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	streamID := s.cfg.StreamID.String()
	if s.cfg.Video && s.video == nil {
		t, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000},
			"video", streamID,
		)
		if err != nil {
			return err
		}
		s.video = t
	}
	if s.cfg.Audio && s.audio == nil {
		t, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
			"audio", streamID,
		)
		if err != nil {
			return err
		}
		s.audio = t
	}
	if s.capture.enabled() && s.stopFeed == nil {
		feedCtx, cancel := context.WithCancel(context.Background())
		s.stopFeed = cancel
		s.capture.start(feedCtx, s)
	}
	return nil
}

// Tracks returns the tracks created by Init.
func (s *LocalStream) Tracks() []webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]webrtc.TrackLocal, 0, 2)
	if s.video != nil {
		out = append(out, s.video)
	}
	if s.audio != nil {
		out = append(out, s.audio)
	}
	return out
}

func (s *LocalStream) Play(elementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.element = elementID
	s.playing = true
	return nil
}

func (s *LocalStream) Element() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.element
}

func (s *LocalStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.element = ""
}

func (s *LocalStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.playing = false
	if s.stopFeed != nil {
		s.stopFeed()
	}
	s.video, s.audio = nil, nil
	s.client = nil
}

// WriteSample sends one encoded frame of kind. Frames written while the
// stream is stopped or that kind is muted are dropped.
func (s *LocalStream) WriteSample(kind webrtc.RTPCodecType, sample media.Sample) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	var track *webrtc.TrackLocalStaticSample
	on := false
	switch kind {
	case webrtc.RTPCodecTypeVideo:
		track, on = s.video, s.media.VideoOn
	case webrtc.RTPCodecTypeAudio:
		track, on = s.audio, s.media.AudioOn
	}
	playing := s.playing
	s.mu.Unlock()

	if track == nil || !on || !playing {
		return nil
	}
	return track.WriteSample(sample)
}

func (s *LocalStream) Media() domain.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}

// SetVideo toggles outgoing video and tells the channel.
func (s *LocalStream) SetVideo(on bool) { s.set("video", on) }

// SetAudio toggles outgoing audio and tells the channel.
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
		c.sendMute(kind, !on)
	}
}

func (s *LocalStream) attach(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}
