package pion

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sink receives the RTP packets of remote streams that are playing.
type Sink func(uid domain.StreamID, kind webrtc.RTPCodecType, pkt *rtp.Packet)

type TrackState int32

const (
	TrackStatePaused TrackState = iota
	TrackStatePlaying
	TrackStateClosed
)

// RemoteStream is one publisher's tracks as received on our connection.
// Packets are read from the moment of subscription; they reach the sink
// only while the stream is playing.
type RemoteStream struct {
	id     domain.StreamID
	sink   Sink
	logger zerolog.Logger
	state  atomic.Int32

	packets atomic.Uint64

	mu         sync.Mutex
	element    string
	tracks     []*webrtc.TrackRemote
	subscribed bool
	ctx        context.Context
	cancel     context.CancelFunc
}

var _ core.RemoteStream = (*RemoteStream)(nil)

func newRemoteStream(id domain.StreamID, sink Sink) *RemoteStream {
	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteStream{
		id:     id,
		sink:   sink,
		logger: log.With().Str("module", "rtc.pion").Str("remote_uid", id.String()).Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *RemoteStream) ID() domain.StreamID { return r.id }

func (r *RemoteStream) State() TrackState { return TrackState(r.state.Load()) }

// Packets is the number of packets delivered to the sink.
func (r *RemoteStream) Packets() uint64 { return r.packets.Load() }

func (r *RemoteStream) Element() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.element
}

func (r *RemoteStream) Play(elementID string) error {
	r.mu.Lock()
	r.element = elementID
	r.mu.Unlock()
	if r.State() != TrackStateClosed {
		r.state.Store(int32(TrackStatePlaying))
	}
	return nil
}

func (r *RemoteStream) Stop() {
	r.mu.Lock()
	r.element = ""
	r.mu.Unlock()
	if r.State() != TrackStateClosed {
		r.state.Store(int32(TrackStatePaused))
	}
}

// attach adds a track; it starts draining right away if already subscribed.
func (r *RemoteStream) attach(track *webrtc.TrackRemote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = append(r.tracks, track)
	if r.subscribed {
		go r.loop(r.ctx, track)
	}
}

func (r *RemoteStream) subscribe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscribed {
		return
	}
	r.subscribed = true
	for _, t := range r.tracks {
		go r.loop(r.ctx, t)
	}
}

func (r *RemoteStream) close() {
	r.state.Store(int32(TrackStateClosed))
	r.cancel()
	r.logger.Info().Uint64("packets", r.Packets()).Msg("remote stream closed")
}

// loop reads RTP packets from one source track until the stream closes.
func (r *RemoteStream) loop(ctx context.Context, track *webrtc.TrackRemote) {
	kind := track.Kind()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Str("kind", kind.String()).Msg("remote stream closed, stop reading")
			return
		default:
		}
		pkt, _, err := track.ReadRTP()
		if err != nil {
			r.logger.Error().Err(err).Str("kind", kind.String()).Msg("read RTP error, stopping")
			return
		}
		r.forward(kind, pkt)
	}
}

func (r *RemoteStream) forward(kind webrtc.RTPCodecType, pkt *rtp.Packet) {
	switch r.State() {
	case TrackStateClosed, TrackStatePaused:
	case TrackStatePlaying:
		r.packets.Add(1)
		if r.sink != nil {
			r.sink(r.id, kind, pkt)
		}
	}
}
