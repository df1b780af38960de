// Package session owns the lifecycle of the local capture stream and the RTC
// client: start, stop, and the state mutations driven by client events.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionActive = errors.New("session already active")
	ErrNoSession     = errors.New("no active session")
)

type Options struct {
	AppID        string
	ClientConfig core.ClientConfig
	// OnReady is told true once the local stream is published and false
	// when the session stops.
	OnReady func(ready bool)
}

// Controller owns at most one active Session. Whoever creates a Controller
// must defer Close so the local stream and client are released on every
// exit path.
type Controller struct {
	provider core.RTCProvider
	opts     Options
	changes  *core.Notifier

	mu     sync.Mutex
	active *Session
}

func NewController(provider core.RTCProvider, opts Options) *Controller {
	if opts.ClientConfig == (core.ClientConfig{}) {
		opts.ClientConfig = core.DefaultClientConfig()
	}
	return &Controller{
		provider: provider,
		opts:     opts,
		changes:  core.NewNotifier(),
	}
}

// Start creates the client and local stream, then brings the session up in
// the background: init, capture, join, publish. ctx scopes only this call;
// the session lives until Stop or Close.
func (c *Controller) Start(ctx context.Context, localID domain.StreamID, channel domain.ChannelID) (*Session, error) {
	if localID == 0 {
		return nil, domain.ErrStreamIDZero
	}
	if _, err := domain.NewChannelID(string(channel)); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrSessionActive
	}

	client, err := c.provider.NewClient(c.opts.ClientConfig)
	if err != nil {
		return nil, err
	}
	stream, err := c.provider.NewStream(core.StreamConfig{StreamID: localID, Audio: true, Video: true})
	if err != nil {
		return nil, err
	}

	s := newSession(context.WithoutCancel(ctx), localID, channel, client, stream, c.opts, c.changes.Notify, c.release)
	c.active = s
	s.start()
	log.Info().Str("module", "app.session").Str("session", s.ID()).Str("channel", channel.String()).Str("uid", localID.String()).Msg("session started")
	c.changes.Notify()
	return s, nil
}

// Stop stops the active session.
func (c *Controller) Stop(ctx context.Context) error {
	s, ok := c.Active()
	if !ok {
		return ErrNoSession
	}
	return s.Stop(ctx)
}

// release forgets s once it has stopped, however it was stopped.
func (c *Controller) release(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}

// Close releases the active session, if any.
func (c *Controller) Close(ctx context.Context) error {
	if err := c.Stop(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}

func (c *Controller) Active() (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != nil
}

// Snapshot returns the active session's state, or the inactive zero state.
func (c *Controller) Snapshot() State {
	if s, ok := c.Active(); ok {
		return s.Snapshot()
	}
	return State{Remotes: []RemoteEntry{}}
}

// Subscribe delivers a signal after every state change of any session.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	return c.changes.Subscribe()
}
