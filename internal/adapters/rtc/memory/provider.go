// Package memory is an in-process RTC provider. Clients that join the same
// channel see each other's published streams without any network.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
)

var (
	ErrNotJoined         = errors.New("client has not joined a channel")
	ErrAlreadyJoined     = errors.New("client already joined a channel")
	ErrAppID             = errors.New("unknown app id")
	ErrUnsupportedConfig = errors.New("unsupported client config")
	ErrForeignStream     = errors.New("stream does not belong to this provider")
	ErrStreamGone        = errors.New("remote stream is no longer published")
	ErrStreamClosed      = errors.New("stream closed")
)

const eventBuffer = 64

// Provider implements core.RTCProvider. Its hubs are keyed by channel.
type Provider struct {
	appID string

	mu   sync.Mutex
	hubs map[domain.ChannelID]*hub
}

var _ core.RTCProvider = (*Provider)(nil)

// NewProvider returns a provider accepting appID; an empty appID accepts any.
func NewProvider(appID string) *Provider {
	return &Provider{appID: appID, hubs: make(map[domain.ChannelID]*hub)}
}

func (p *Provider) NewClient(cfg core.ClientConfig) (core.RTCClient, error) {
	if cfg.Mode != core.ModeRTC || cfg.Codec != core.CodecH264 {
		return nil, fmt.Errorf("%w: mode=%q codec=%q", ErrUnsupportedConfig, cfg.Mode, cfg.Codec)
	}
	return newClient(p, cfg), nil
}

func (p *Provider) NewStream(cfg core.StreamConfig) (core.LocalStream, error) {
	if cfg.StreamID == 0 {
		return nil, domain.ErrStreamIDZero
	}
	return &LocalStream{cfg: cfg, media: domain.MediaState{VideoOn: cfg.Video, AudioOn: cfg.Audio}}, nil
}

// Members returns the uids currently joined to channel.
func (p *Provider) Members(channel domain.ChannelID) []domain.StreamID {
	p.mu.Lock()
	h, ok := p.hubs[channel]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return h.uids()
}

func (p *Provider) hub(channel domain.ChannelID) *hub {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.hubs[channel]
	if !ok {
		h = newHub(channel)
		p.hubs[channel] = h
	}
	return h
}
