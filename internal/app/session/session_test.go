package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Classroom/internal/core"
	"github.com/dkeye/Classroom/internal/core/mocks"
	"github.com/dkeye/Classroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testAppID   = "app-1"
	testChannel = domain.ChannelID("math-101")
	testUID     = domain.StreamID(7)
)

type stubProvider struct {
	client core.RTCClient
	local  core.LocalStream
	err    error
}

func (p stubProvider) NewClient(core.ClientConfig) (core.RTCClient, error) { return p.client, p.err }
func (p stubProvider) NewStream(core.StreamConfig) (core.LocalStream, error) {
	return p.local, nil
}

type readyLog struct {
	mu     sync.Mutex
	values []bool
}

func (r *readyLog) record(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *readyLog) get() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.values...)
}

type fixture struct {
	ctrl       *gomock.Controller
	client     *mocks.MockRTCClient
	local      *mocks.MockLocalStream
	events     chan core.Event
	published  chan struct{}
	ready      *readyLog
	controller *Controller
}

// newFixture expects a clean bring-up ending in Publish.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:      ctrl,
		client:    mocks.NewMockRTCClient(ctrl),
		local:     mocks.NewMockLocalStream(ctrl),
		events:    make(chan core.Event, 16),
		published: make(chan struct{}),
		ready:     &readyLog{},
	}
	f.client.EXPECT().Events().Return((<-chan core.Event)(f.events)).AnyTimes()
	f.local.EXPECT().ID().Return(testUID).AnyTimes()
	gomock.InOrder(
		f.client.EXPECT().Init(gomock.Any(), testAppID).Return(nil),
		f.local.EXPECT().Init(gomock.Any()).Return(nil),
		f.local.EXPECT().Play(LocalElementID).Return(nil),
		f.client.EXPECT().Join(gomock.Any(), testAppID, testChannel, testUID).Return(nil),
		f.client.EXPECT().Publish(gomock.Any(), f.local).DoAndReturn(func(context.Context, core.LocalStream) error {
			close(f.published)
			return nil
		}),
	)
	f.controller = NewController(stubProvider{client: f.client, local: f.local}, Options{
		AppID:   testAppID,
		OnReady: f.ready.record,
	})
	return f
}

func (f *fixture) start(t *testing.T) *Session {
	t.Helper()
	s, err := f.controller.Start(context.Background(), testUID, testChannel)
	require.NoError(t, err)
	select {
	case <-f.published:
	case <-time.After(time.Second):
		t.Fatal("bring-up did not reach publish")
	}
	require.Eventually(t, s.Joined, time.Second, 5*time.Millisecond)
	return s
}

func (f *fixture) expectTeardown() {
	f.client.EXPECT().Leave(gomock.Any()).Return(nil)
	f.local.EXPECT().Stop()
	f.local.EXPECT().Close()
}

func (f *fixture) remote(id domain.StreamID) *mocks.MockRemoteStream {
	r := mocks.NewMockRemoteStream(f.ctrl)
	r.EXPECT().ID().Return(id).AnyTimes()
	r.EXPECT().Play(RemoteElementID(id)).Return(nil).AnyTimes()
	r.EXPECT().Stop().AnyTimes()
	return r
}

func (f *fixture) subscribe(t *testing.T, s *Session, ids ...domain.StreamID) {
	t.Helper()
	want := len(s.Snapshot().Remotes) + len(ids)
	for _, id := range ids {
		f.events <- core.StreamSubscribed{Stream: f.remote(id)}
	}
	require.Eventually(t, func() bool { return len(s.Snapshot().Remotes) == want }, time.Second, 5*time.Millisecond)
}

func media(t *testing.T, s *Session, id domain.StreamID) domain.MediaState {
	t.Helper()
	for _, r := range s.Snapshot().Remotes {
		if r.StreamID == id {
			return r.Media
		}
	}
	t.Fatalf("no remote %d", id)
	return domain.MediaState{}
}

func TestStartBringsSessionUp(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	st := s.Snapshot()
	assert.True(t, st.Active)
	require.NotNil(t, st.Local)
	assert.Equal(t, testUID, st.Local.StreamID)
	assert.Equal(t, domain.MediaOn(), st.Local.Media)
	assert.Empty(t, st.Remotes)

	active, ok := f.controller.Active()
	assert.True(t, ok)
	assert.Same(t, s, active)

	f.events <- core.Published{}
	require.Eventually(t, func() bool { return len(f.ready.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true}, f.ready.get())

	f.expectTeardown()
	require.NoError(t, f.controller.Close(context.Background()))
}

func TestStartWhileActive(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.controller.Start(context.Background(), testUID, testChannel)
	assert.ErrorIs(t, err, ErrSessionActive)

	f.expectTeardown()
	require.NoError(t, f.controller.Stop(context.Background()))
}

func TestStartRejectsBadInput(t *testing.T) {
	c := NewController(stubProvider{}, Options{})
	_, err := c.Start(context.Background(), 0, testChannel)
	assert.ErrorIs(t, err, domain.ErrStreamIDZero)
	_, err = c.Start(context.Background(), testUID, "")
	assert.ErrorIs(t, err, domain.ErrChannelEmpty)

	boom := errors.New("boom")
	c = NewController(stubProvider{err: boom}, Options{})
	_, err = c.Start(context.Background(), testUID, testChannel)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, c.Stop(context.Background()), ErrNoSession)
	assert.NoError(t, c.Close(context.Background()))
}

func TestStreamAddedSubscribes(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	r := f.remote(11)
	subscribed := make(chan struct{})
	f.client.EXPECT().Subscribe(gomock.Any(), r).DoAndReturn(func(context.Context, core.RemoteStream) error {
		close(subscribed)
		return nil
	})
	f.events <- core.StreamAdded{Stream: r}
	select {
	case <-subscribed:
	case <-time.After(time.Second):
		t.Fatal("stream-added did not subscribe")
	}
	assert.Empty(t, s.Snapshot().Remotes)

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
}

func TestStreamSubscribedAddsUniqueEntries(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	f.subscribe(t, s, 11, 12)
	f.events <- core.StreamSubscribed{Stream: f.remote(11)}
	f.subscribe(t, s, 13)

	st := s.Snapshot()
	require.Len(t, st.Remotes, 3)
	assert.Equal(t, []domain.StreamID{11, 12, 13}, []domain.StreamID{st.Remotes[0].StreamID, st.Remotes[1].StreamID, st.Remotes[2].StreamID})
	for _, r := range st.Remotes {
		assert.Equal(t, domain.MediaOn(), r.Media)
	}

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
}

func TestPeerLeftRemovesExactlyOne(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)
	f.subscribe(t, s, 11, 12, 13)

	f.events <- core.PeerLeft{UID: 12}
	require.Eventually(t, func() bool { return len(s.Snapshot().Remotes) == 2 }, time.Second, 5*time.Millisecond)
	for _, r := range s.Snapshot().Remotes {
		assert.NotEqual(t, domain.StreamID(12), r.StreamID)
	}

	// unknown uid is a no-op
	assert.False(t, s.RemoveParticipant(99))
	assert.Len(t, s.Snapshot().Remotes, 2)

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
}

func TestRemoveParticipantLeavesOthersUntouched(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)
	f.subscribe(t, s, 11, 12)

	assert.True(t, s.RemoveParticipant(11))
	st := s.Snapshot()
	require.Len(t, st.Remotes, 1)
	assert.Equal(t, domain.StreamID(12), st.Remotes[0].StreamID)
	assert.Equal(t, domain.MediaOn(), st.Remotes[0].Media)

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
}

func TestMuteEventsFlipOneFlag(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)
	f.subscribe(t, s, 11, 12)

	f.events <- core.MuteVideo{UID: 11}
	require.Eventually(t, func() bool { return !media(t, s, 11).VideoOn }, time.Second, 5*time.Millisecond)
	assert.True(t, media(t, s, 11).AudioOn)
	assert.Equal(t, domain.MediaOn(), media(t, s, 12))

	f.events <- core.MuteAudio{UID: 12}
	require.Eventually(t, func() bool { return !media(t, s, 12).AudioOn }, time.Second, 5*time.Millisecond)
	assert.True(t, media(t, s, 12).VideoOn)
	assert.Equal(t, domain.MediaState{VideoOn: false, AudioOn: true}, media(t, s, 11))

	f.events <- core.UnmuteVideo{UID: 11}
	f.events <- core.UnmuteAudio{UID: 12}
	require.Eventually(t, func() bool {
		return media(t, s, 11) == domain.MediaOn() && media(t, s, 12) == domain.MediaOn()
	}, time.Second, 5*time.Millisecond)

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
}

func TestStopClearsState(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)
	f.subscribe(t, s, 11, 12)

	changes, cancel := f.controller.Subscribe()
	defer cancel()

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))

	st := s.Snapshot()
	assert.False(t, st.Active)
	assert.Nil(t, st.Local)
	assert.Empty(t, st.Remotes)
	assert.False(t, s.Joined())

	_, ok := f.controller.Active()
	assert.False(t, ok)
	assert.Empty(t, f.controller.Snapshot().Remotes)
	assert.Equal(t, []bool{false}, f.ready.get())

	select {
	case <-changes:
	default:
		t.Fatal("stop should signal a change")
	}
	select {
	case <-s.done:
	default:
		t.Fatal("event loop should have exited")
	}

	// idempotent
	require.NoError(t, s.Stop(context.Background()))
}

func TestEventsAfterStopAreDropped(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)
	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))

	late := mocks.NewMockRemoteStream(f.ctrl)
	late.EXPECT().ID().Return(domain.StreamID(21)).AnyTimes()
	late.EXPECT().Play(gomock.Any()).Times(0)

	s.handle(core.StreamSubscribed{Stream: late})
	s.handle(core.StreamAdded{Stream: late})
	s.handle(core.MuteVideo{UID: 21})
	s.SetFullscreen(true)

	st := s.Snapshot()
	assert.Empty(t, st.Remotes)
	assert.False(t, st.Fullscreen)
}

func TestStopReleasesWhenLeaveFails(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)
	f.subscribe(t, s, 11)

	boom := errors.New("network down")
	f.client.EXPECT().Leave(gomock.Any()).Return(boom)
	f.local.EXPECT().Stop()
	f.local.EXPECT().Close()

	err := s.Stop(context.Background())
	assert.ErrorIs(t, err, boom)
	st := s.Snapshot()
	assert.Nil(t, st.Local)
	assert.Empty(t, st.Remotes)
}

func TestJoinFinishingAfterStopLeaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRTCClient(ctrl)
	local := mocks.NewMockLocalStream(ctrl)
	events := make(chan core.Event)

	joining := make(chan struct{})
	finishJoin := make(chan struct{})
	left := make(chan struct{})
	client.EXPECT().Events().Return((<-chan core.Event)(events)).AnyTimes()
	client.EXPECT().Init(gomock.Any(), testAppID).Return(nil)
	local.EXPECT().Init(gomock.Any()).Return(nil)
	local.EXPECT().Play(LocalElementID).Return(nil)
	client.EXPECT().Join(gomock.Any(), testAppID, testChannel, testUID).DoAndReturn(
		func(context.Context, string, domain.ChannelID, domain.StreamID) error {
			close(joining)
			<-finishJoin
			return nil
		})
	client.EXPECT().Leave(gomock.Any()).DoAndReturn(func(context.Context) error {
		close(left)
		return nil
	})
	local.EXPECT().Stop()
	local.EXPECT().Close()

	c := NewController(stubProvider{client: client, local: local}, Options{AppID: testAppID})
	s, err := c.Start(context.Background(), testUID, testChannel)
	require.NoError(t, err)
	<-joining

	done, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Stop(done))
	_, active := c.Active()
	assert.False(t, active)

	close(finishJoin)
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("join that finished after stop was never left")
	}
	<-s.bringUpEnd
	assert.False(t, s.Joined())
}

func TestLocalMediaToggles(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	assert.True(t, s.SetLocalVideo(false))
	assert.False(t, s.SetLocalVideo(false))
	assert.Equal(t, domain.MediaState{AudioOn: true}, s.Snapshot().Local.Media)
	assert.True(t, s.SetLocalAudio(false))
	assert.Equal(t, domain.MediaState{}, s.Snapshot().Local.Media)

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.SetLocalAudio(true))
}

func TestCaptureFailureSkipsJoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRTCClient(ctrl)
	local := mocks.NewMockLocalStream(ctrl)
	events := make(chan core.Event)

	client.EXPECT().Events().Return((<-chan core.Event)(events)).AnyTimes()
	client.EXPECT().Init(gomock.Any(), testAppID).Return(errors.New("bad app id"))
	initDone := make(chan struct{})
	local.EXPECT().Init(gomock.Any()).DoAndReturn(func(context.Context) error {
		close(initDone)
		return errors.New("no camera")
	})
	local.EXPECT().Stop()
	local.EXPECT().Close()

	c := NewController(stubProvider{client: client, local: local}, Options{AppID: testAppID})
	s, err := c.Start(context.Background(), testUID, testChannel)
	require.NoError(t, err)
	<-initDone

	// no Leave expected: the session never joined
	require.NoError(t, c.Stop(context.Background()))
	assert.Nil(t, s.Snapshot().Local)
}

func TestFullscreenAndOverlay(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	s.SetFullscreen(true)
	s.SetOverlayVisible(true)
	st := f.controller.Snapshot()
	assert.True(t, st.Fullscreen)
	assert.True(t, st.OverlayVisible)

	s.SetFullscreen(false)
	assert.False(t, s.Snapshot().Fullscreen)

	f.expectTeardown()
	require.NoError(t, s.Stop(context.Background()))
}
