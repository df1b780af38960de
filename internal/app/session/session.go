package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const orphanLeaveWait = 10 * time.Second

// Session is one start..stop lifetime of the local stream and its client.
// Client events are drained by a single goroutine in arrival order; every
// mutation they trigger is dropped once the session is cancelled.
type Session struct {
	id      string
	localID domain.StreamID
	channel domain.ChannelID
	client  core.RTCClient
	local   core.LocalStream
	opts    Options
	logger  zerolog.Logger

	changed func()
	release func(*Session)

	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	bringUpEnd chan struct{}

	mu       sync.Mutex
	state    State
	joined   bool
	stopping bool

	stopOnce sync.Once
	stopErr  error
}

func newSession(
	parent context.Context,
	localID domain.StreamID,
	channel domain.ChannelID,
	client core.RTCClient,
	local core.LocalStream,
	opts Options,
	changed func(),
	release func(*Session),
) *Session {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	return &Session{
		id:      id,
		localID: localID,
		channel: channel,
		client:  client,
		local:   local,
		opts:    opts,
		logger: log.With().
			Str("module", "app.session").
			Str("session", id).
			Str("channel", channel.String()).
			Logger(),
		changed:    changed,
		release:    release,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		bringUpEnd: make(chan struct{}),
		state:      State{Active: true, Remotes: []RemoteEntry{}},
	}
}

func (s *Session) start() {
	go s.run()
	go func() {
		defer close(s.bringUpEnd)
		s.bringUp()
	}()
}

func (s *Session) ID() string                { return s.id }
func (s *Session) LocalID() domain.StreamID  { return s.localID }
func (s *Session) Channel() domain.ChannelID { return s.channel }

func (s *Session) Joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// bringUp mirrors the SDK's callback chain: client init, capture init,
// play, join, publish. Failures are logged and end the chain where the
// next step could not work.
func (s *Session) bringUp() {
	if err := s.client.Init(s.ctx, s.opts.AppID); err != nil {
		s.logger.Error().Err(err).Msg("rtc client init failed")
	} else {
		s.logger.Info().Msg("rtc client initialized")
	}

	if err := s.local.Init(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("local capture init failed")
		return
	}
	s.logger.Info().Msg("local capture initialized")

	applied := s.mutate(func(st *State) bool {
		st.Local = &LocalEntry{Stream: s.local, StreamID: s.localID, Media: domain.MediaOn()}
		return true
	})
	if !applied {
		return
	}
	if err := s.local.Play(LocalElementID); err != nil {
		s.logger.Error().Err(err).Msg("local stream play failed")
	}

	if err := s.client.Join(s.ctx, s.opts.AppID, s.channel, s.localID); err != nil {
		s.logger.Error().Err(err).Msg("join channel failed")
		return
	}
	s.mu.Lock()
	orphaned := s.stopping
	if !orphaned {
		s.joined = true
	}
	s.mu.Unlock()
	if orphaned {
		// stop already ran without seeing this join
		s.leaveOrphaned()
		return
	}
	s.logger.Info().Str("uid", s.localID.String()).Msg("joined channel")

	if err := s.client.Publish(s.ctx, s.local); err != nil {
		s.logger.Error().Err(err).Msg("publish local stream failed")
	}
}

func (s *Session) leaveOrphaned() {
	ctx, cancel := context.WithTimeout(context.Background(), orphanLeaveWait)
	defer cancel()
	if err := s.client.Leave(ctx); err != nil {
		s.logger.Error().Err(err).Msg("leave after stop failed")
		return
	}
	s.logger.Info().Msg("left channel joined after stop")
}

func (s *Session) run() {
	defer close(s.done)
	events := s.client.Events()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug().Msg("event loop ctx done")
			return
		case ev, ok := <-events:
			if !ok {
				s.logger.Warn().Msg("client event channel closed")
				return
			}
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev core.Event) {
	if s.ctx.Err() != nil {
		s.logger.Debug().Str("event", ev.Kind()).Msg("event after stop dropped")
		return
	}
	s.logger.Debug().Str("event", ev.Kind()).Msg("client event")

	switch e := ev.(type) {
	case core.Published:
		s.logger.Info().Msg("local stream published")
		if s.opts.OnReady != nil {
			s.opts.OnReady(true)
		}
	case core.StreamAdded:
		s.logger.Info().Str("uid", e.Stream.ID().String()).Msg("remote stream added")
		if err := s.client.Subscribe(s.ctx, e.Stream); err != nil {
			s.logger.Error().Err(err).Str("uid", e.Stream.ID().String()).Msg("subscribe failed")
		}
	case core.StreamSubscribed:
		s.addRemote(e.Stream)
	case core.PeerLeft:
		s.RemoveParticipant(e.UID)
		s.logger.Info().Str("uid", e.UID.String()).Msg("remote user left")
	case core.MuteVideo:
		s.setMedia(e.UID, func(m *domain.MediaState) { m.VideoOn = false })
	case core.UnmuteVideo:
		s.setMedia(e.UID, func(m *domain.MediaState) { m.VideoOn = true })
	case core.MuteAudio:
		s.setMedia(e.UID, func(m *domain.MediaState) { m.AudioOn = false })
	case core.UnmuteAudio:
		s.setMedia(e.UID, func(m *domain.MediaState) { m.AudioOn = true })
	default:
		s.logger.Warn().Str("event", ev.Kind()).Msg("unhandled client event")
	}
}

// mutate applies fn under the lock unless the session was cancelled.
// fn reports whether it changed anything.
func (s *Session) mutate(fn func(st *State) bool) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	changed := fn(&s.state)
	s.mu.Unlock()
	if changed {
		s.changed()
	}
	return changed
}

func (s *Session) addRemote(stream core.RemoteStream) {
	id := stream.ID()
	added := s.mutate(func(st *State) bool {
		if st.remoteIndex(id) >= 0 {
			return false
		}
		st.Remotes = append(st.Remotes, RemoteEntry{Stream: stream, StreamID: id, Media: domain.MediaOn()})
		return true
	})
	if !added {
		s.logger.Debug().Str("uid", id.String()).Msg("remote stream not added")
		return
	}
	s.logger.Info().Str("uid", id.String()).Msg("subscribed remote stream")
	if err := stream.Play(RemoteElementID(id)); err != nil {
		s.logger.Error().Err(err).Str("uid", id.String()).Msg("remote stream play failed")
	}
}

func (s *Session) setMedia(id domain.StreamID, fn func(m *domain.MediaState)) {
	s.mutate(func(st *State) bool {
		i := st.remoteIndex(id)
		if i < 0 {
			return false
		}
		before := st.Remotes[i].Media
		fn(&st.Remotes[i].Media)
		return before != st.Remotes[i].Media
	})
}

// RemoveParticipant drops the remote entry with the given id. Only that
// entry's flags are reset before it is discarded.
func (s *Session) RemoveParticipant(id domain.StreamID) bool {
	var removed core.RemoteStream
	s.mutate(func(st *State) bool {
		i := st.remoteIndex(id)
		if i < 0 {
			return false
		}
		st.Remotes[i].Media = domain.MediaState{}
		removed = st.Remotes[i].Stream
		st.Remotes = append(st.Remotes[:i], st.Remotes[i+1:]...)
		return true
	})
	if removed == nil {
		return false
	}
	removed.Stop()
	return true
}

// SetLocalVideo turns the local camera on or off. It reports false when
// there is no local stream yet or nothing changed.
func (s *Session) SetLocalVideo(on bool) bool {
	return s.setLocal(
		func(m *domain.MediaState) { m.VideoOn = on },
		func(t core.MediaToggler) { t.SetVideo(on) },
	)
}

// SetLocalAudio turns the local microphone on or off.
func (s *Session) SetLocalAudio(on bool) bool {
	return s.setLocal(
		func(m *domain.MediaState) { m.AudioOn = on },
		func(t core.MediaToggler) { t.SetAudio(on) },
	)
}

func (s *Session) setLocal(fn func(m *domain.MediaState), apply func(t core.MediaToggler)) bool {
	changed := s.mutate(func(st *State) bool {
		if st.Local == nil {
			return false
		}
		before := st.Local.Media
		fn(&st.Local.Media)
		return before != st.Local.Media
	})
	if !changed {
		return false
	}
	if t, ok := s.local.(core.MediaToggler); ok {
		apply(t)
	} else {
		s.logger.Warn().Msg("local stream cannot mute itself")
	}
	return true
}

func (s *Session) SetFullscreen(on bool) {
	s.mutate(func(st *State) bool {
		changed := st.Fullscreen != on
		st.Fullscreen = on
		return changed
	})
}

func (s *Session) SetOverlayVisible(on bool) {
	s.mutate(func(st *State) bool {
		changed := st.OverlayVisible != on
		st.OverlayVisible = on
		return changed
	})
}

// Stop leaves the channel, releases the local stream and clears the
// remote collection. The local stream is released even when leave fails.
// Stop is idempotent; later calls return the first result.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { s.stopErr = s.stop(ctx) })
	return s.stopErr
}

func (s *Session) stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.bringUpEnd:
	case <-ctx.Done():
		s.logger.Warn().Msg("bring-up still running at stop")
	}

	s.mu.Lock()
	s.stopping = true
	joined := s.joined
	s.mu.Unlock()

	var err error
	if joined {
		if leaveErr := s.client.Leave(ctx); leaveErr != nil {
			s.logger.Error().Err(leaveErr).Msg("channel leave failed")
			err = fmt.Errorf("leave channel %s: %w", s.channel, leaveErr)
		} else {
			s.logger.Info().Msg("client leaves channel success")
		}
	} else if closer, ok := s.client.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("client close failed")
		}
	}
	s.local.Stop()
	s.local.Close()

	s.mu.Lock()
	remotes := s.state.Remotes
	s.state.Remotes = []RemoteEntry{}
	s.state.Local = nil
	s.state.Active = false
	s.joined = false
	s.mu.Unlock()
	for _, r := range remotes {
		r.Stream.Stop()
	}

	select {
	case <-s.done:
	case <-ctx.Done():
	}

	if s.opts.OnReady != nil {
		s.opts.OnReady(false)
	}
	s.release(s)
	s.changed()
	s.logger.Info().Msg("session stopped")
	return err
}
