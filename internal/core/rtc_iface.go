//go:generate mockgen -destination=mocks/rtc_mock.go -package=mocks . RTCClient,LocalStream,RemoteStream

package core

import (
	"context"

	"github.com/dkeye/Classroom/internal/domain"
)

const (
	ModeRTC   = "rtc"
	CodecH264 = "h264"
)

// ClientConfig is the fixed codec/mode pair a client is created with.
type ClientConfig struct {
	Mode  string
	Codec string
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{Mode: ModeRTC, Codec: CodecH264}
}

// StreamConfig describes a local capture stream.
type StreamConfig struct {
	StreamID domain.StreamID
	Audio    bool
	Video    bool
}

// RTCProvider is the SDK entry point: it builds clients and local streams.
type RTCProvider interface {
	NewClient(cfg ClientConfig) (RTCClient, error)
	NewStream(cfg StreamConfig) (LocalStream, error)
}

// RTCClient is one connection to the RTC service.
// Events is closed by the client after Leave.
type RTCClient interface {
	Init(ctx context.Context, appID string) error
	Join(ctx context.Context, appID string, channel domain.ChannelID, uid domain.StreamID) error
	Publish(ctx context.Context, stream LocalStream) error
	Subscribe(ctx context.Context, stream RemoteStream) error
	Leave(ctx context.Context) error
	Events() <-chan Event
}

// LocalStream is the capture handle for the current participant.
type LocalStream interface {
	ID() domain.StreamID
	// Init acquires the capture devices.
	Init(ctx context.Context) error
	// Play renders the stream into the named view element.
	Play(elementID string) error
	// Stop stops playback and capture.
	Stop()
	// Close releases the capture devices.
	Close()
}

// MediaToggler is implemented by local streams that can mute their own
// tracks and tell the channel about it.
type MediaToggler interface {
	SetVideo(on bool)
	SetAudio(on bool)
}

// RemoteStream is another participant's stream, received via subscription.
type RemoteStream interface {
	ID() domain.StreamID
	Play(elementID string) error
	Stop()
}
