package pion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Classroom/internal/adapters/persistence/postgres"
	"github.com/dkeye/Classroom/internal/app/layout"
	"github.com/dkeye/Classroom/internal/app/render"
	"github.com/dkeye/Classroom/internal/app/session"
	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame map[string]any

// fakeSFU answers the client the way the media server would.
type fakeSFU struct {
	srv      *httptest.Server
	received chan frame
	header   chan http.Header
}

func newFakeSFU(t *testing.T, reply func(conn *websocket.Conn, f frame)) *fakeSFU {
	t.Helper()
	s := &fakeSFU{received: make(chan frame, 32), header: make(chan http.Header, 1)}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.header <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f frame
			if json.Unmarshal(data, &f) != nil {
				continue
			}
			s.received <- f
			if reply != nil {
				reply(conn, f)
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *fakeSFU) url() string { return "ws" + strings.TrimPrefix(s.srv.URL, "http") }

func (s *fakeSFU) next(t *testing.T, typ string) frame {
	t.Helper()
	for {
		select {
		case f := <-s.received:
			if f["type"] == typ {
				return f
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %q frame", typ)
			return nil
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) {
	_ = conn.WriteJSON(v)
}

// fakeMedia records what the client asks of its peer connection.
type fakeMedia struct {
	mu        sync.Mutex
	receivers []webrtc.RTPCodecType
	tracks    []string
	answer    string
	closed    bool
}

func (m *fakeMedia) Start(context.Context) error                   { return nil }
func (m *fakeMedia) AddICECandidate(webrtc.ICECandidateInit) error { return nil }
func (m *fakeMedia) OnICECandidate(func(webrtc.ICECandidateInit))  {}
func (m *fakeMedia) OnTrack(func(context.Context, *webrtc.TrackRemote, *webrtc.RTPReceiver)) {
}
func (m *fakeMedia) OnClosed(func()) {}

func (m *fakeMedia) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *fakeMedia) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *fakeMedia) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 fake-offer"}, nil
}

func (m *fakeMedia) ApplyAnswer(sd webrtc.SessionDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answer = sd.SDP
	return nil
}

func (m *fakeMedia) AddLocalTrack(t webrtc.TrackLocal) (*webrtc.RTPSender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = append(m.tracks, t.ID())
	return nil, nil
}

func (m *fakeMedia) AddReceiver(kind webrtc.RTPCodecType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receivers = append(m.receivers, kind)
	return nil
}

func nextEvent(t *testing.T, c *Client) core.Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func roomStateReply(conn *websocket.Conn, f frame) {
	switch f["type"] {
	case msgJoin:
		writeJSON(conn, roomStateMsg{Type: msgRoomState, Room: f["room"].(string), Members: []domain.Member{
			domain.NewMember(1, domain.RoleHost, "teacher"),
			domain.NewMember(2, domain.RoleGuest, "me"),
		}})
	case msgOffer:
		writeJSON(conn, sdpMsg{Type: msgAnswer, SDP: "v=0 fake-answer"})
	case msgPing:
		writeJSON(conn, envelope{Type: msgPong})
	}
}

func TestJoinReceivesRoomState(t *testing.T) {
	sfu := newFakeSFU(t, roomStateReply)
	roster := core.NewRoster()
	p := NewProvider(Config{SignalURL: sfu.url(), Directory: roster})
	rc, err := p.NewClient(core.DefaultClientConfig())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, rc.Init(ctx, "app-1"))
	assert.Equal(t, "app-1", (<-sfu.header).Get("X-App-Id"))

	require.NoError(t, rc.Join(ctx, "app-1", "math", 2))
	join := sfu.next(t, msgJoin)
	assert.Equal(t, "math", join["room"])
	assert.EqualValues(t, 2, join["uid"])

	members := roster.Members()
	require.Len(t, members, 2)
	assert.Equal(t, domain.RoleHost, members[0].Identity)

	require.NoError(t, rc.Leave(ctx))
	sfu.next(t, msgLeave)
	_, open := <-rc.Events()
	assert.False(t, open)
}

func TestJoinServerError(t *testing.T) {
	sfu := newFakeSFU(t, func(conn *websocket.Conn, f frame) {
		if f["type"] == msgJoin {
			writeJSON(conn, errorMsg{Type: msgError, Error: "room is not exists"})
		}
	})
	rc, err := NewProvider(Config{SignalURL: sfu.url()}).NewClient(core.DefaultClientConfig())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, rc.Init(ctx, ""))

	err = rc.Join(ctx, "", "nowhere", 5)
	assert.ErrorIs(t, err, ErrServer)
	assert.ErrorIs(t, rc.Leave(ctx), ErrNotJoined)
	require.NoError(t, rc.(*Client).Close())
}

func TestJoinTimesOut(t *testing.T) {
	sfu := newFakeSFU(t, nil)
	rc, err := NewProvider(Config{SignalURL: sfu.url(), JoinTimeout: 50 * time.Millisecond}).NewClient(core.DefaultClientConfig())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, rc.Init(ctx, ""))
	assert.ErrorIs(t, rc.Join(ctx, "", "math", 5), context.DeadlineExceeded)
}

func TestNotConnected(t *testing.T) {
	p := NewProvider(Config{})
	rc, err := p.NewClient(core.DefaultClientConfig())
	require.NoError(t, err)
	ctx := context.Background()
	assert.ErrorIs(t, rc.Init(ctx, "app"), ErrNotConnected)
	assert.ErrorIs(t, rc.Join(ctx, "app", "math", 3), ErrNotConnected)

	ls, err := p.NewStream(core.StreamConfig{StreamID: 3, Video: true})
	require.NoError(t, err)
	assert.ErrorIs(t, rc.Publish(ctx, ls), ErrNotJoined)

	_, err = p.NewClient(core.ClientConfig{Mode: "live", Codec: "vp8"})
	assert.ErrorIs(t, err, ErrUnsupportedConfig)
	_, err = p.NewStream(core.StreamConfig{})
	assert.ErrorIs(t, err, domain.ErrStreamIDZero)
}

func TestPublishNegotiates(t *testing.T) {
	sfu := newFakeSFU(t, roomStateReply)
	media := &fakeMedia{}
	p := NewProvider(Config{
		SignalURL: sfu.url(),
		NewMedia:  func(domain.StreamID) (core.MediaConnection, error) { return media, nil },
	})
	rc, err := p.NewClient(core.DefaultClientConfig())
	require.NoError(t, err)
	ls, err := p.NewStream(core.StreamConfig{StreamID: 2, Audio: true, Video: true})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, rc.Init(ctx, ""))
	require.NoError(t, rc.Join(ctx, "", "math", 2))
	assert.ErrorIs(t, rc.Publish(ctx, ls), ErrStreamNotReady)

	require.NoError(t, ls.Init(ctx))
	require.NoError(t, rc.Publish(ctx, ls))
	offer := sfu.next(t, msgOffer)
	assert.Equal(t, "v=0 fake-offer", offer["sdp"])

	assert.Equal(t, core.Published{}, nextEvent(t, rc.(*Client)))
	media.mu.Lock()
	assert.Equal(t, "v=0 fake-answer", media.answer)
	assert.Equal(t, []webrtc.RTPCodecType{webrtc.RTPCodecTypeVideo, webrtc.RTPCodecTypeAudio}, media.receivers)
	assert.Equal(t, []string{"video", "audio"}, media.tracks)
	media.mu.Unlock()

	ls.(*LocalStream).SetVideo(false)
	mute := sfu.next(t, msgMute)
	assert.Equal(t, "video", mute["kind"])
	assert.Equal(t, true, mute["muted"])

	require.NoError(t, rc.Leave(ctx))
	assert.True(t, media.IsClosed())
}

func TestPingKeepalive(t *testing.T) {
	sfu := newFakeSFU(t, roomStateReply)
	rc, err := NewProvider(Config{SignalURL: sfu.url(), PingPeriod: 20 * time.Millisecond}).NewClient(core.DefaultClientConfig())
	require.NoError(t, err)
	require.NoError(t, rc.Init(context.Background(), ""))
	sfu.next(t, msgPing)
	require.NoError(t, rc.(*Client).Close())
}

func TestHandleFrameMembersAndMute(t *testing.T) {
	roster := core.NewRoster(domain.NewMember(4, domain.RoleGuest, "ann"))
	c := newClient(Config{Directory: roster})

	c.handleFrame([]byte(`{"type":"member_joined","user":{"userId":5,"identity":"guest","username":"bob"}}`))
	assert.Len(t, roster.Members(), 2)

	rs, added := c.remoteFor(4)
	require.True(t, added)

	c.handleFrame([]byte(`{"type":"mute","uid":4,"kind":"audio","muted":true}`))
	assert.Equal(t, core.MuteAudio{UID: 4}, nextEvent(t, c))
	c.handleFrame([]byte(`{"type":"mute","uid":4,"kind":"video","muted":false}`))
	assert.Equal(t, core.UnmuteVideo{UID: 4}, nextEvent(t, c))
	c.handleFrame([]byte(`{"type":"mute","uid":4,"kind":"screen","muted":true}`))

	c.handleFrame([]byte(`{"type":"member_left","user":{"userId":4,"identity":"guest"}}`))
	assert.Equal(t, core.PeerLeft{UID: 4}, nextEvent(t, c))
	assert.Equal(t, TrackStateClosed, rs.State())
	require.Len(t, roster.Members(), 1)
	assert.Equal(t, domain.StreamID(5), roster.Members()[0].UserID)

	c.handleFrame([]byte(`not json`))
	c.handleFrame([]byte(`{"type":"answer","sdp":"x"}`))
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event %s", ev.Kind())
	default:
	}
}

type storedMembers []domain.Member

func (s storedMembers) Load(context.Context, domain.ChannelID) ([]domain.Member, error) {
	return s, nil
}

func TestStoredRosterKeepsLivePresence(t *testing.T) {
	roster := core.NewRoster()
	c := newClient(Config{Directory: roster})
	c.handleFrame([]byte(`{"type":"room_state","room":"math","members":[` +
		`{"userId":1,"identity":"host","username":"teacher"},` +
		`{"userId":2,"identity":"guest","username":"me"},` +
		`{"userId":3,"identity":"guest","username":"ann"}]}`))

	state := session.State{
		Active: true,
		Local:  &session.LocalEntry{StreamID: 2, Media: domain.MediaOn()},
		Remotes: []session.RemoteEntry{
			{StreamID: 1, Media: domain.MediaOn()},
			{StreamID: 3, Media: domain.MediaOn()},
		},
	}
	before := render.Compose(state, roster.Members(), domain.RoleGuest)
	require.NotNil(t, before.Host)

	syncer := postgres.NewSyncer(storedMembers{domain.NewMember(2, domain.RoleGuest, "me")}, roster, "math", 0)
	require.NoError(t, syncer.Sync(context.Background()))

	after := render.Compose(state, roster.Members(), domain.RoleGuest)
	require.NotNil(t, after.Host)
	assert.Equal(t, domain.StreamID(1), after.Host.StreamID)
	assert.Len(t, after.Peers, 1)
	assert.Equal(t, layout.SizeHalf, after.Self.Size)
	assert.Len(t, roster.Members(), 3)
}

func TestSubscribe(t *testing.T) {
	c := newClient(Config{})
	ctx := context.Background()

	assert.ErrorIs(t, c.Subscribe(ctx, newRemoteStream(9, nil)), ErrUnknownStream)

	rs, _ := c.remoteFor(9)
	require.NoError(t, c.Subscribe(ctx, rs))
	ev, ok := nextEvent(t, c).(core.StreamSubscribed)
	require.True(t, ok)
	assert.Same(t, rs, ev.Stream)

	again, added := c.remoteFor(9)
	assert.False(t, added)
	assert.Same(t, rs, again)
}

func TestRemoteStreamForward(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []uint16
		kind webrtc.RTPCodecType
	)
	rs := newRemoteStream(7, func(uid domain.StreamID, k webrtc.RTPCodecType, pkt *rtp.Packet) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, domain.StreamID(7), uid)
		kind = k
		got = append(got, pkt.SequenceNumber)
	})
	pkt := func(seq uint16) *rtp.Packet {
		return &rtp.Packet{Header: rtp.Header{Version: 2, SequenceNumber: seq, PayloadType: 96}}
	}

	rs.forward(webrtc.RTPCodecTypeVideo, pkt(1))
	require.NoError(t, rs.Play("rtc_remote_stream_7"))
	assert.Equal(t, TrackStatePlaying, rs.State())
	assert.Equal(t, "rtc_remote_stream_7", rs.Element())
	rs.forward(webrtc.RTPCodecTypeVideo, pkt(2))
	rs.forward(webrtc.RTPCodecTypeVideo, pkt(3))
	rs.Stop()
	assert.Equal(t, TrackStatePaused, rs.State())
	rs.forward(webrtc.RTPCodecTypeVideo, pkt(4))
	require.NoError(t, rs.Play("rtc_remote_stream_7"))
	rs.close()
	rs.forward(webrtc.RTPCodecTypeVideo, pkt(5))
	require.NoError(t, rs.Play("again"))
	assert.Equal(t, TrackStateClosed, rs.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint16{2, 3}, got)
	assert.Equal(t, webrtc.RTPCodecTypeVideo, kind)
	assert.EqualValues(t, 2, rs.Packets())
}

func TestLocalStreamTracks(t *testing.T) {
	ctx := context.Background()
	s := newLocalStream(core.StreamConfig{StreamID: 12, Audio: true, Video: true}, Capture{})
	assert.Empty(t, s.Tracks())

	require.NoError(t, s.Init(ctx))
	tracks := s.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "12", tracks[0].StreamID())
	assert.Equal(t, webrtc.RTPCodecTypeVideo, tracks[0].Kind())
	assert.Equal(t, webrtc.RTPCodecTypeAudio, tracks[1].Kind())

	// not playing yet: dropped without error
	assert.NoError(t, s.WriteSample(webrtc.RTPCodecTypeVideo, mediaSample()))
	require.NoError(t, s.Play("rtc_local_stream"))
	assert.Equal(t, "rtc_local_stream", s.Element())

	s.Close()
	assert.Empty(t, s.Tracks())
	assert.ErrorIs(t, s.WriteSample(webrtc.RTPCodecTypeVideo, mediaSample()), ErrStreamClosed)
	assert.ErrorIs(t, s.Init(ctx), ErrStreamClosed)

	audioOnly := newLocalStream(core.StreamConfig{StreamID: 13, Audio: true}, Capture{})
	require.NoError(t, audioOnly.Init(ctx))
	require.Len(t, audioOnly.Tracks(), 1)
	assert.Equal(t, domain.MediaState{AudioOn: true}, audioOnly.Media())
}

func TestCandidateFrame(t *testing.T) {
	mid := "0"
	var idx uint16
	ci := webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: &mid, SDPMLineIndex: &idx}

	raw, err := encode(candidateFrame(ci))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sdpMLineIndex":0`)

	var back candidateMsg
	require.NoError(t, json.Unmarshal(raw, &back))
	got := back.init()
	assert.Equal(t, ci.Candidate, got.Candidate)
	require.NotNil(t, got.SDPMid)
	assert.Equal(t, "0", *got.SDPMid)
	require.NotNil(t, got.SDPMLineIndex)
	assert.Equal(t, uint16(0), *got.SDPMLineIndex)
}
