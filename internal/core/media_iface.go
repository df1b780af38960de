package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// MediaConnection is the client side of one peer connection to the media server.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	IsClosed() bool
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// CreateAndSetOffer creates the local offer and waits for ICE gathering.
	CreateAndSetOffer() (*webrtc.SessionDescription, error)
	ApplyAnswer(webrtc.SessionDescription) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver))
	// AddLocalTrack attaches a local track to the underlying PeerConnection.
	AddLocalTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error)
	// AddReceiver adds a receive-only transceiver so remote tracks of kind can arrive.
	AddReceiver(kind webrtc.RTPCodecType) error
	// OnClosed sets a callback for cleanup media session.
	OnClosed(func())
}
