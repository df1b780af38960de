package memory

import (
	"context"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
)

// Peer is a simulated participant: joined, publishing, and draining its
// own events so the channel has someone to show.
type Peer struct {
	Client *Client
	Stream *LocalStream
}

func (p *Provider) JoinPeer(ctx context.Context, channel domain.ChannelID, uid domain.StreamID) (*Peer, error) {
	rc, err := p.NewClient(core.DefaultClientConfig())
	if err != nil {
		return nil, err
	}
	c := rc.(*Client)
	ls, err := p.NewStream(core.StreamConfig{StreamID: uid, Audio: true, Video: true})
	if err != nil {
		return nil, err
	}
	stream := ls.(*LocalStream)

	if err := c.Init(ctx, p.appID); err != nil {
		return nil, err
	}
	if err := stream.Init(ctx); err != nil {
		return nil, err
	}
	if err := c.Join(ctx, p.appID, channel, uid); err != nil {
		stream.Close()
		return nil, err
	}
	go func() {
		for range c.Events() {
		}
	}()
	if err := c.Publish(ctx, stream); err != nil {
		_ = c.Leave(ctx)
		stream.Close()
		return nil, err
	}
	return &Peer{Client: c, Stream: stream}, nil
}

func (peer *Peer) Leave(ctx context.Context) error {
	err := peer.Client.Leave(ctx)
	peer.Stream.Close()
	return err
}
