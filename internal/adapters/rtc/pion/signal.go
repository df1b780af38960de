package pion

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var errConnClosed = errors.New("connection closed")

// wsSignalConn is the client end of the signaling socket.
type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*wsSignalConn)(nil)

func dialSignal(ctx context.Context, url string, header http.Header) (*wsSignalConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return &wsSignalConn{conn: ws, send: make(chan core.Frame, 32)}, nil
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close stops accepting frames; the write pump flushes what is queued
// and then closes the socket.
func (c *wsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *wsSignalConn) shutdown() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

func (cl *Client) writePump(ctx context.Context, c *wsSignalConn) {
	defer func() {
		c.shutdown()
		cl.cancel()
	}()

	var tick <-chan time.Time
	if cl.cfg.PingPeriod > 0 {
		t := time.NewTicker(cl.cfg.PingPeriod)
		defer t.Stop()
		tick = t.C
	}
	ping, _ := encode(envelope{Type: msgPing})

	for {
		var data core.Frame
		select {
		case <-ctx.Done():
			cl.logger.Info().Msg("writePump ctx done")
			return
		case <-tick:
			data = ping
		case f, ok := <-c.send:
			if !ok {
				cl.logger.Debug().Msg("writePump channel closed")
				return
			}
			data = f
		}
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			cl.logger.Error().Err(err).Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			cl.logger.Error().Err(err).Msg("writePump write error")
			return
		}
	}
}

func (cl *Client) readPump(ctx context.Context, c *wsSignalConn) {
	defer func() {
		cl.logger.Info().Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			cl.logger.Info().Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					cl.logger.Error().Err(err).Msg("readPump read error")
				}
				return
			}
			cl.handleFrame(data)
		}
	}
}
