// Package pion is an RTC provider speaking WebRTC through pion and JSON
// signaling over a WebSocket, the envelope a Voice-style SFU understands.
package pion

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
)

var (
	ErrNotConnected      = errors.New("signaling not connected")
	ErrNotJoined         = errors.New("client has not joined a channel")
	ErrForeignStream     = errors.New("stream does not belong to this provider")
	ErrUnknownStream     = errors.New("unknown remote stream")
	ErrStreamNotReady    = errors.New("local stream has no tracks, call Init first")
	ErrUnsupportedConfig = errors.New("unsupported client config")
	ErrServer            = errors.New("signaling server error")
)

type Config struct {
	SignalURL   string
	ICEServers  []string
	PingPeriod  time.Duration
	JoinTimeout time.Duration
	// Directory, when set, mirrors the channel's member list.
	Directory core.MemberDirectory
	// Sink receives packets of playing remote streams.
	Sink Sink
	// Capture feeds local tracks from files.
	Capture Capture
	// NewMedia builds the media connection; nil means a pion PeerConnection.
	NewMedia func(uid domain.StreamID) (core.MediaConnection, error)
}

type Provider struct {
	cfg Config
}

var _ core.RTCProvider = (*Provider)(nil)

func NewProvider(cfg Config) *Provider {
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 10 * time.Second
	}
	if cfg.NewMedia == nil {
		wcfg := DefaultWebRTCConfig(cfg.ICEServers)
		cfg.NewMedia = func(uid domain.StreamID) (core.MediaConnection, error) {
			return NewPeerConnection(wcfg, uid)
		}
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) NewClient(cfg core.ClientConfig) (core.RTCClient, error) {
	if cfg.Mode != core.ModeRTC || cfg.Codec != core.CodecH264 {
		return nil, fmt.Errorf("%w: mode=%q codec=%q", ErrUnsupportedConfig, cfg.Mode, cfg.Codec)
	}
	return newClient(p.cfg), nil
}

func (p *Provider) NewStream(cfg core.StreamConfig) (core.LocalStream, error) {
	if cfg.StreamID == 0 {
		return nil, domain.ErrStreamIDZero
	}
	return newLocalStream(cfg, p.cfg.Capture), nil
}
