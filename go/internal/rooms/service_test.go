package rooms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/session"
)

type fakeJoiner struct {
	current string
	joins   []string
}

func (f *fakeJoiner) JoinRoom(roomID string) {
	f.current = roomID
	f.joins = append(f.joins, roomID)
}

func (f *fakeJoiner) CurrentRoom() string { return f.current }

type fakePresenter struct {
	shown   [][]rooms_client.Room
	current string
	hidden  int
}

func (f *fakePresenter) ShowRoomList(rooms []rooms_client.Room, currentRoom string) {
	f.shown = append(f.shown, rooms)
	f.current = currentRoom
}

func (f *fakePresenter) HideRoomList() { f.hidden++ }

type notice struct {
	text string
	kind session.SystemKind
}

type fakeNotifier struct {
	notices []notice
}

func (f *fakeNotifier) RenderSystemMessage(text string, kind session.SystemKind) {
	f.notices = append(f.notices, notice{text: text, kind: kind})
}

type serviceFixture struct {
	clock     *clockwork.FakeClock
	loop      *session.Loop
	dir       *fakeDirectory
	joiner    *fakeJoiner
	presenter *fakePresenter
	notifier  *fakeNotifier
	svc       *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	clock := clockwork.NewFakeClock()
	loop := session.NewLoop(clock)
	f := &serviceFixture{
		clock:     clock,
		loop:      loop,
		dir:       &fakeDirectory{rooms: []rooms_client.Room{{RoomID: "general", Name: "General Chat", IsDefault: true}}},
		joiner:    &fakeJoiner{current: "general"},
		presenter: &fakePresenter{},
		notifier:  &fakeNotifier{},
	}
	f.svc = NewService(context.Background(), NewApp(f.dir), loop, f.joiner, f.presenter, f.notifier)
	return f
}

// settle runs posted results on the loop until cond holds
func (f *serviceFixture) settle(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.loop.RunPending()
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServiceOpenRoomListRefreshesUntilClosed(t *testing.T) {
	f := newServiceFixture(t)

	f.svc.OpenRoomList()
	f.settle(t, func() bool { return len(f.presenter.shown) == 1 })
	require.Equal(t, "general", f.presenter.current)
	require.True(t, f.svc.ListOpen())

	f.clock.Advance(30 * time.Second)
	f.loop.RunPending()
	f.settle(t, func() bool { return len(f.presenter.shown) == 2 })

	f.svc.CloseRoomList()
	require.Equal(t, 1, f.presenter.hidden)

	f.clock.Advance(2 * time.Minute)
	f.loop.RunPending()
	listCalls, _ := f.dir.calls()
	require.Equal(t, 2, listCalls)
}

func TestServiceLoadFailureIsInline(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.listErr = errors.New("connection refused")

	f.svc.OpenRoomList()
	f.settle(t, func() bool { return len(f.notifier.notices) == 1 })

	require.Equal(t, notice{text: "Failed to load rooms", kind: session.SystemError}, f.notifier.notices[0])
	require.Empty(t, f.presenter.shown)
}

func TestServiceSelectRoomJoinsAndCloses(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.OpenRoomList()

	f.svc.SelectRoom("ab12cd34")

	require.Equal(t, []string{"ab12cd34"}, f.joiner.joins)
	require.False(t, f.svc.ListOpen())
	require.Equal(t, 1, f.presenter.hidden)
}

func TestServiceCreateRoomJoinsNewRoom(t *testing.T) {
	f := newServiceFixture(t)

	require.True(t, f.svc.CreateRoom("Book Club", "15", "10"))
	f.settle(t, func() bool { return len(f.joiner.joins) == 1 })

	require.Equal(t, "room0001", f.joiner.joins[0])
	require.Equal(t, notice{text: `Created room "Book Club"`, kind: session.SystemInfo}, f.notifier.notices[0])
}

func TestServiceCreateRoomValidationIsSynchronous(t *testing.T) {
	f := newServiceFixture(t)

	require.False(t, f.svc.CreateRoom("", "5", "0"))
	require.Equal(t, []notice{{text: "Please enter a room name", kind: session.SystemError}}, f.notifier.notices)

	_, created := f.dir.calls()
	require.Zero(t, created)
}

func TestServiceCreateRoomFailureShowsServerMessage(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.createErr = &rooms_client.ServerError{StatusCode: 400, Message: "Room duration must be between 0 and 10 minutes"}

	require.True(t, f.svc.CreateRoom("x", "5", "3"))
	f.settle(t, func() bool { return len(f.notifier.notices) == 1 })

	require.Equal(t, notice{text: "Room duration must be between 0 and 10 minutes", kind: session.SystemError}, f.notifier.notices[0])
	require.Empty(t, f.joiner.joins)
}

func TestServiceRefreshPausesWhileDisconnected(t *testing.T) {
	f := newServiceFixture(t)

	f.svc.OpenRoomList()
	f.settle(t, func() bool { return len(f.presenter.shown) == 1 })

	f.svc.ConnectionChanged(false)
	f.clock.Advance(2 * time.Minute)
	f.loop.RunPending()
	listCalls, _ := f.dir.calls()
	require.Equal(t, 1, listCalls)
	require.True(t, f.svc.ListOpen())

	// Reconnecting reloads at once and restarts the refresh
	f.svc.ConnectionChanged(true)
	f.settle(t, func() bool { return len(f.presenter.shown) == 2 })

	f.clock.Advance(30 * time.Second)
	f.loop.RunPending()
	f.settle(t, func() bool { return len(f.presenter.shown) == 3 })
}

func TestServiceReconnectWithClosedListDoesNothing(t *testing.T) {
	f := newServiceFixture(t)

	f.svc.ConnectionChanged(false)
	f.svc.ConnectionChanged(true)
	f.clock.Advance(time.Minute)
	f.loop.RunPending()

	listCalls, _ := f.dir.calls()
	require.Zero(t, listCalls)
	require.Empty(t, f.presenter.shown)
}
