package pion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const eventBuffer = 64

// Client implements core.RTCClient. Init dials signaling, Join enters a
// room, Publish negotiates the peer connection carrying both directions.
type Client struct {
	cfg    Config
	name   string
	logger zerolog.Logger
	events chan core.Event

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	appID    string
	conn     *wsSignalConn
	channel  domain.ChannelID
	uid      domain.StreamID
	joinWait chan error
	media    core.MediaConnection
	local    *LocalStream
	remotes  map[domain.StreamID]*RemoteStream
	closed   bool
}

var _ core.RTCClient = (*Client)(nil)

func newClient(cfg Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	name := uuid.NewString()
	return &Client{
		cfg:     cfg,
		name:    name,
		logger:  log.With().Str("module", "rtc.pion").Str("client", name).Logger(),
		events:  make(chan core.Event, eventBuffer),
		ctx:     ctx,
		cancel:  cancel,
		remotes: make(map[domain.StreamID]*RemoteStream),
	}
}

func (c *Client) Events() <-chan core.Event { return c.events }

// Init dials the signaling server.
func (c *Client) Init(ctx context.Context, appID string) error {
	if c.cfg.SignalURL == "" {
		return fmt.Errorf("%w: no signal url", ErrNotConnected)
	}
	header := http.Header{}
	if appID != "" {
		header.Set("X-App-Id", appID)
	}
	conn, err := dialSignal(ctx, c.cfg.SignalURL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.SignalURL, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		conn.shutdown()
		return nil
	}
	c.appID = appID
	c.conn = conn
	c.mu.Unlock()

	go c.writePump(c.ctx, conn)
	go c.readPump(c.ctx, conn)
	c.logger.Info().Str("url", c.cfg.SignalURL).Msg("signaling connected")
	return nil
}

// Join enters the room and waits for its state.
func (c *Client) Join(ctx context.Context, appID string, channel domain.ChannelID, uid domain.StreamID) error {
	if uid == 0 {
		return domain.ErrStreamIDZero
	}
	wait := make(chan error, 1)
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.channel, c.uid, c.joinWait = channel, uid, wait
	c.mu.Unlock()

	if err := c.send(joinMsg{Type: msgJoin, Room: channel.String(), UID: uid, Name: uid.String(), AppID: appID}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.JoinTimeout)
	defer cancel()
	var err error
	select {
	case err = <-wait:
	case <-ctx.Done():
		err = fmt.Errorf("join %s: %w", channel, ctx.Err())
	case <-c.ctx.Done():
		err = ErrNotConnected
	}

	c.mu.Lock()
	c.joinWait = nil
	if err != nil {
		c.channel, c.uid = "", 0
	}
	c.mu.Unlock()
	return err
}

func (c *Client) joined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uid != 0 && c.joinWait == nil
}

// Publish negotiates a peer connection sending the local tracks and
// receiving the room's. Published is emitted once the answer is applied.
func (c *Client) Publish(ctx context.Context, stream core.LocalStream) error {
	ls, ok := stream.(*LocalStream)
	if !ok {
		return ErrForeignStream
	}
	if !c.joined() {
		return ErrNotJoined
	}
	tracks := ls.Tracks()
	if len(tracks) == 0 {
		return ErrStreamNotReady
	}

	c.mu.Lock()
	uid, old := c.uid, c.media
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}

	mc, err := c.cfg.NewMedia(uid)
	if err != nil {
		return fmt.Errorf("new peer connection: %w", err)
	}
	mc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		if err := c.send(candidateFrame(ci)); err != nil {
			c.logger.Warn().Err(err).Msg("send candidate")
		}
	})
	mc.OnTrack(c.onTrack)
	mc.OnClosed(func() { c.logger.Info().Msg("media connection closed") })
	if err := mc.Start(c.ctx); err != nil {
		mc.Close()
		return err
	}
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeVideo, webrtc.RTPCodecTypeAudio} {
		if err := mc.AddReceiver(kind); err != nil {
			mc.Close()
			return fmt.Errorf("add %s receiver: %w", kind, err)
		}
	}
	for _, t := range tracks {
		if _, err := mc.AddLocalTrack(t); err != nil {
			mc.Close()
			return fmt.Errorf("add local track %s: %w", t.ID(), err)
		}
	}
	if err := ctx.Err(); err != nil {
		mc.Close()
		return err
	}
	offer, err := mc.CreateAndSetOffer()
	if err != nil {
		mc.Close()
		return fmt.Errorf("create offer: %w", err)
	}

	c.mu.Lock()
	c.media = mc
	c.local = ls
	c.mu.Unlock()
	ls.attach(c)

	return c.send(sdpMsg{Type: msgOffer, SDP: offer.SDP})
}

func (c *Client) Subscribe(_ context.Context, stream core.RemoteStream) error {
	rs, ok := stream.(*RemoteStream)
	if !ok {
		return ErrForeignStream
	}
	c.mu.Lock()
	known := c.remotes[rs.ID()] == rs
	c.mu.Unlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownStream, rs.ID())
	}
	rs.subscribe()
	c.deliver(core.StreamSubscribed{Stream: rs})
	return nil
}

// Leave tells the room, tears down media and signaling and closes Events.
func (c *Client) Leave(_ context.Context) error {
	c.mu.Lock()
	joined := c.uid != 0 && !c.closed
	c.mu.Unlock()
	if !joined {
		return ErrNotJoined
	}
	if err := c.send(envelope{Type: msgLeave}); err != nil {
		c.logger.Warn().Err(err).Msg("send leave")
	}
	c.teardown()
	c.logger.Info().Msg("left channel")
	return nil
}

// Close releases signaling and media without telling the room. It is for
// clients that connected but never joined.
func (c *Client) Close() error {
	c.teardown()
	return nil
}

func (c *Client) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	mc, local, remotes, conn := c.media, c.local, c.remotes, c.conn
	c.media, c.local, c.conn = nil, nil, nil
	c.remotes = make(map[domain.StreamID]*RemoteStream)
	c.channel, c.uid = "", 0
	close(c.events)
	c.mu.Unlock()

	if local != nil {
		local.attach(nil)
	}
	if mc != nil {
		mc.Close()
	}
	for _, r := range remotes {
		r.close()
	}
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	f, err := encode(v)
	if err != nil {
		return err
	}
	return conn.TrySend(f)
}

func (c *Client) sendMute(kind string, muted bool) {
	if err := c.send(muteMsg{Type: msgMute, Kind: kind, Muted: muted}); err != nil {
		c.logger.Warn().Err(err).Str("kind", kind).Msg("send mute")
	}
}

// deliver queues ev without blocking; a full queue drops it.
func (c *Client) deliver(ev core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn().Str("event", ev.Kind()).Msg("event queue full, dropping")
	}
}

// onTrack groups incoming tracks by their stream id, which publishers set
// to their uid. The first track of a uid announces the stream.
func (c *Client) onTrack(_ context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	uid, err := domain.ParseStreamID(track.StreamID())
	if err != nil {
		c.logger.Warn().Err(err).Str("stream_id", track.StreamID()).Msg("track with foreign stream id")
		return
	}
	rs, added := c.remoteFor(uid)
	if rs == nil {
		return
	}
	rs.attach(track)
	if added {
		c.deliver(core.StreamAdded{Stream: rs})
	}
}

func (c *Client) remoteFor(uid domain.StreamID) (*RemoteStream, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	if rs, ok := c.remotes[uid]; ok {
		return rs, false
	}
	rs := newRemoteStream(uid, c.cfg.Sink)
	c.remotes[uid] = rs
	return rs, true
}

func (c *Client) handleFrame(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Error().Err(err).Msg("bad json")
		return
	}

	switch env.Type {
	case msgRoomState:
		c.handleRoomState(data)
	case msgMemberJoined:
		c.handleMemberJoined(data)
	case msgMemberLeft:
		c.handleMemberLeft(data)
	case msgAnswer:
		c.handleAnswer(data)
	case msgCandidate:
		c.handleCandidate(data)
	case msgMute:
		c.handleMute(data)
	case msgPong:
		c.logger.Debug().Msg("pong")
	case msgError:
		c.handleError(data)
	default:
		c.logger.Warn().Str("type", env.Type).Msg("unknown signal")
	}
}

func (c *Client) handleRoomState(data []byte) {
	var m roomStateMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad room_state payload")
		return
	}
	if c.cfg.Directory != nil {
		c.cfg.Directory.Replace(m.Members)
	}
	c.logger.Info().Str("room", m.Room).Int("members", len(m.Members)).Msg("room state")
	c.resolveJoin(nil)
}

func (c *Client) handleMemberJoined(data []byte) {
	var m memberMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad member_joined payload")
		return
	}
	if c.cfg.Directory != nil {
		c.cfg.Directory.Upsert(m.User)
	}
	c.logger.Info().Str("uid", m.User.UserID.String()).Msg("member joined")
}

func (c *Client) handleMemberLeft(data []byte) {
	var m memberMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad member_left payload")
		return
	}
	uid := m.User.UserID
	if c.cfg.Directory != nil {
		c.cfg.Directory.Remove(uid)
	}
	c.mu.Lock()
	rs := c.remotes[uid]
	delete(c.remotes, uid)
	c.mu.Unlock()
	if rs != nil {
		rs.close()
	}
	c.deliver(core.PeerLeft{UID: uid})
}

func (c *Client) handleAnswer(data []byte) {
	var m sdpMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad answer payload")
		return
	}
	c.mu.Lock()
	mc := c.media
	c.mu.Unlock()
	if mc == nil {
		c.logger.Warn().Msg("answer: no media connection")
		return
	}
	if err := mc.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: m.SDP}); err != nil {
		c.logger.Error().Err(err).Msg("apply answer")
		return
	}
	c.deliver(core.Published{})
}

func (c *Client) handleCandidate(data []byte) {
	var m candidateMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad candidate payload")
		return
	}
	c.mu.Lock()
	mc := c.media
	c.mu.Unlock()
	if mc == nil {
		c.logger.Warn().Msg("candidate: no media connection")
		return
	}
	if err := mc.AddICECandidate(m.init()); err != nil {
		c.logger.Error().Err(err).Msg("add ice candidate")
	}
}

func (c *Client) handleMute(data []byte) {
	var m muteMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad mute payload")
		return
	}
	ev := core.MuteEvent(m.UID, m.Kind, m.Muted)
	if ev == nil {
		c.logger.Warn().Str("kind", m.Kind).Msg("mute: unknown media kind")
		return
	}
	c.deliver(ev)
}

func (c *Client) handleError(data []byte) {
	var m errorMsg
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error().Err(err).Msg("bad error payload")
		return
	}
	c.logger.Error().Str("error", m.Error).Msg("signaling server error")
	c.resolveJoin(fmt.Errorf("%w: %s", ErrServer, m.Error))
}

func (c *Client) resolveJoin(err error) {
	c.mu.Lock()
	wait := c.joinWait
	c.mu.Unlock()
	if wait == nil {
		return
	}
	select {
	case wait <- err:
	default:
	}
}
