package pion

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PeerConnection is the publishing/subscribing side of one connection to
// the media server.
type PeerConnection struct {
	pc     *webrtc.PeerConnection
	logger zerolog.Logger
	onICE  func(webrtc.ICECandidateInit)
	cancel context.CancelFunc

	onTrack   func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
	onClosed  func()
	closeOnce sync.Once
	closed    atomic.Bool
}

var _ core.MediaConnection = (*PeerConnection)(nil)

func DefaultWebRTCConfig(iceServers []string) webrtc.Configuration {
	if len(iceServers) == 0 {
		iceServers = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceServers}},
	}
}

func NewPeerConnection(cfg webrtc.Configuration, uid domain.StreamID) (*PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &PeerConnection{
		pc:     pc,
		logger: log.With().Str("module", "rtc.pion").Str("uid", uid.String()).Logger(),
	}, nil
}

func (c *PeerConnection) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		c.logger.Info().Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateDisconnected ||
			s == webrtc.ICEConnectionStateFailed ||
			s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			c.fireClosed()
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && c.onICE != nil {
			c.onICE(cand.ToJSON())
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		c.logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		if c.onTrack != nil {
			c.onTrack(ctx, track, receiver)
		}
	})

	return nil
}

// CreateAndSetOffer creates the offer, sets it locally and waits for ICE
// gathering so the returned description carries the candidates.
func (c *PeerConnection) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	<-gatherComplete

	return c.pc.LocalDescription(), nil
}

func (c *PeerConnection) ApplyAnswer(answer webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(answer)
}

func (c *PeerConnection) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.pc.Close(); err != nil {
		c.logger.Error().Err(err).Msg("close error")
	} else {
		c.logger.Info().Msg("closed")
	}
	c.fireClosed()
}

func (c *PeerConnection) IsClosed() bool { return c.closed.Load() }

func (c *PeerConnection) fireClosed() {
	c.closeOnce.Do(func() {
		if c.onClosed != nil {
			c.onClosed()
		}
	})
}

func (c *PeerConnection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *PeerConnection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.onICE = fn
}

// OnTrack sets application-level callback for remote tracks.
func (c *PeerConnection) OnTrack(fn func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)) {
	c.onTrack = fn
}

func (c *PeerConnection) OnClosed(fn func()) { c.onClosed = fn }

// AddLocalTrack attaches a local track and drains its RTCP so the
// interceptors keep working.
func (c *PeerConnection) AddLocalTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error) {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return nil, err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return sender, nil
}

// AddReceiver adds a receive-only transceiver so the offer carries an
// m-section for kind even before anyone publishes it.
func (c *PeerConnection) AddReceiver(kind webrtc.RTPCodecType) error {
	_, err := c.pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	return err
}
