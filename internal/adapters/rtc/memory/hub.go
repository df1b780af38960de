package memory

import (
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// hub is one channel: the joined clients in join order.
type hub struct {
	channel domain.ChannelID

	mu      sync.Mutex
	clients []*Client
}

func newHub(channel domain.ChannelID) *hub {
	return &hub{channel: channel}
}

func (h *hub) uids() []domain.StreamID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.StreamID, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c.UID())
	}
	return out
}

// join registers c and announces every stream already published to it.
func (h *hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, other := range h.clients {
		if other.publishing() {
			c.deliver(core.StreamAdded{Stream: newRemoteStream(other.UID())})
		}
	}
	h.clients = append(h.clients, c)
	log.Debug().Str("module", "rtc.memory").Str("channel", h.channel.String()).Str("uid", c.UID().String()).Msg("client joined")
}

func (h *hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, other := range h.clients {
		if other == c {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			break
		}
	}
	for _, other := range h.clients {
		other.deliver(core.PeerLeft{UID: c.UID()})
	}
	log.Debug().Str("module", "rtc.memory").Str("channel", h.channel.String()).Str("uid", c.UID().String()).Msg("client left")
}

// broadcast delivers the event built for each client except from.
func (h *hub) broadcast(from *Client, build func() core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, other := range h.clients {
		if other != from {
			other.deliver(build())
		}
	}
}

func (h *hub) publishing(uid domain.StreamID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.UID() == uid {
			return c.publishing()
		}
	}
	return false
}
