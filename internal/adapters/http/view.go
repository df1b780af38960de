package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

var errViewClosed = errors.New("connection closed")

// wsViewConn pushes render trees to one browser.
type wsViewConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*wsViewConn)(nil)

func (c *wsViewConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errViewClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsViewConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleView upgrades to a WebSocket that receives the render tree now
// and after every session or roster change.
func (h *Classroom) HandleView(ctx context.Context, c *gin.Context) {
	sid := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}
	if h.opts.ReadLimit > 0 {
		ws.SetReadLimit(h.opts.ReadLimit)
	}

	conn := &wsViewConn{conn: ws, send: make(chan core.Frame, 8)}
	ctx, cancel := context.WithCancel(ctx)

	go h.writePump(ctx, sid, conn)
	go h.readPump(ctx, cancel, sid, conn)
	go h.pushViews(ctx, sid, conn)
}

func (h *Classroom) pushTree(sid string, conn *wsViewConn) {
	b, err := json.Marshal(h.Tree())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("marshal tree")
		return
	}
	if err := conn.TrySend(b); err != nil && !errors.Is(err, errViewClosed) {
		log.Warn().Err(err).Str("module", "adapters.http").Str("sid", sid).Msg("view push dropped")
	}
}

func (h *Classroom) pushViews(ctx context.Context, sid string, conn *wsViewConn) {
	sessionChanges, cancelSession := h.sessions.Subscribe()
	defer cancelSession()
	rosterChanges, cancelRoster := h.roster.Subscribe()
	defer cancelRoster()

	h.pushTree(sid, conn)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sessionChanges:
			if !ok {
				return
			}
		case _, ok := <-rosterChanges:
			if !ok {
				return
			}
		}
		h.pushTree(sid, conn)
	}
}

func (h *Classroom) writePump(ctx context.Context, sid string, c *wsViewConn) {
	defer c.Close()
	var tick <-chan time.Time
	if h.opts.PingPeriod > 0 {
		t := time.NewTicker(h.opts.PingPeriod)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "adapters.http").Str("sid", sid).Msg("view writePump ctx done")
			return
		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Str("sid", sid).Msg("view ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("view writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("view writePump write error")
				return
			}
		}
	}
}

// readPump only watches for the browser going away.
func (h *Classroom) readPump(ctx context.Context, cancel context.CancelFunc, sid string, c *wsViewConn) {
	defer func() {
		log.Info().Str("module", "adapters.http").Str("sid", sid).Msg("view connection closing")
		cancel()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
