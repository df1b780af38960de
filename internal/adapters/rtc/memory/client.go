package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Client implements core.RTCClient against a Provider's hubs.
type Client struct {
	provider *Provider
	cfg      core.ClientConfig
	events   chan core.Event

	mu        sync.Mutex
	uid       domain.StreamID
	hub       *hub
	published *LocalStream
	closed    bool
}

var _ core.RTCClient = (*Client)(nil)

func newClient(p *Provider, cfg core.ClientConfig) *Client {
	return &Client{provider: p, cfg: cfg, events: make(chan core.Event, eventBuffer)}
}

func (c *Client) UID() domain.StreamID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uid
}

func (c *Client) Events() <-chan core.Event { return c.events }

func (c *Client) Init(ctx context.Context, appID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.provider.appID != "" && appID != c.provider.appID {
		return fmt.Errorf("%w: %q", ErrAppID, appID)
	}
	return nil
}

func (c *Client) Join(ctx context.Context, appID string, channel domain.ChannelID, uid domain.StreamID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.provider.appID != "" && appID != c.provider.appID {
		return fmt.Errorf("%w: %q", ErrAppID, appID)
	}
	if uid == 0 {
		return domain.ErrStreamIDZero
	}
	c.mu.Lock()
	if c.hub != nil || c.closed {
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	h := c.provider.hub(channel)
	c.hub = h
	c.uid = uid
	c.mu.Unlock()

	h.join(c)
	return nil
}

func (c *Client) Publish(ctx context.Context, stream core.LocalStream) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ls, ok := stream.(*LocalStream)
	if !ok {
		return ErrForeignStream
	}
	c.mu.Lock()
	h := c.hub
	if h == nil {
		c.mu.Unlock()
		return ErrNotJoined
	}
	c.published = ls
	c.mu.Unlock()
	ls.attach(c)

	c.deliver(core.Published{})
	uid := c.UID()
	h.broadcast(c, func() core.Event { return core.StreamAdded{Stream: newRemoteStream(uid)} })
	return nil
}

func (c *Client) Subscribe(ctx context.Context, stream core.RemoteStream) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rs, ok := stream.(*RemoteStream)
	if !ok {
		return ErrForeignStream
	}
	c.mu.Lock()
	h := c.hub
	c.mu.Unlock()
	if h == nil {
		return ErrNotJoined
	}
	if !h.publishing(rs.ID()) {
		return fmt.Errorf("%w: %s", ErrStreamGone, rs.ID())
	}
	c.deliver(core.StreamSubscribed{Stream: rs})
	return nil
}

// Leave removes the client from its channel and closes Events.
func (c *Client) Leave(ctx context.Context) error {
	c.mu.Lock()
	h := c.hub
	if h == nil {
		c.mu.Unlock()
		return ErrNotJoined
	}
	c.hub = nil
	ls := c.published
	c.published = nil
	c.mu.Unlock()

	if ls != nil {
		ls.attach(nil)
	}
	h.leave(c)

	c.mu.Lock()
	c.closed = true
	close(c.events)
	c.mu.Unlock()
	return nil
}

func (c *Client) publishing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published != nil
}

// mute tells the rest of the channel that the local stream toggled kind.
func (c *Client) mute(kind string, muted bool) {
	c.mu.Lock()
	h, uid := c.hub, c.uid
	c.mu.Unlock()
	if h == nil {
		return
	}
	h.broadcast(c, func() core.Event { return core.MuteEvent(uid, kind, muted) })
}

// deliver queues ev without blocking; a full queue drops it.
func (c *Client) deliver(ev core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		log.Warn().Str("module", "rtc.memory").Str("uid", c.uid.String()).Str("event", ev.Kind()).Msg("event queue full, dropping")
	}
}
