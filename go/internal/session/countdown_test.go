package session

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newCountdownFixture() (*clockwork.FakeClock, *Loop, *recordingView, *fakeTransport, *CountdownTimer) {
	clock := clockwork.NewFakeClock()
	loop := NewLoop(clock)
	view := &recordingView{}
	transport := &fakeTransport{connected: true}
	emit := func(ev Outbound) { _ = transport.Emit(ev) }
	return clock, loop, view, transport, NewCountdownTimer(loop, emit, view, time.Second)
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{seconds: 125, want: "2:05"},
		{seconds: 300, want: "5:00"},
		{seconds: 30, want: "0:30"},
		{seconds: 9, want: "0:09"},
		{seconds: 0, want: "0:00"},
		{seconds: -1, want: "-0:01"},
		{seconds: 3600, want: "60:00"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatCountdown(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestCountdownStartRendersImmediately(t *testing.T) {
	_, _, view, _, timer := newCountdownFixture()
	var st CountdownState

	timer.Start(&st, "general", 125)

	require.Len(t, view.countdown, 1)
	require.Equal(t, countdownDisplay{formatted: "2:05", warning: false}, view.lastCountdown())
	require.True(t, timer.Running(&st))
}

func TestCountdownEntersWarningAtThirtySeconds(t *testing.T) {
	clock, loop, view, _, timer := newCountdownFixture()
	var st CountdownState

	timer.Start(&st, "general", 125)

	clock.Advance(94 * time.Second)
	loop.RunPending()
	require.Equal(t, countdownDisplay{formatted: "0:31", warning: false}, view.lastCountdown())

	clock.Advance(time.Second)
	loop.RunPending()
	require.Equal(t, countdownDisplay{formatted: "0:30", warning: true}, view.lastCountdown())
	require.True(t, st.WarningActive)
}

func TestCountdownRequestsStatusOncePastZero(t *testing.T) {
	clock, loop, view, transport, timer := newCountdownFixture()
	var st CountdownState

	timer.Start(&st, "general", 125)
	clock.Advance(126 * time.Second)
	loop.RunPending()

	// One render on start plus one per tick
	require.Len(t, view.countdown, 127)
	require.Equal(t, "0:00", view.countdown[125].formatted)
	require.Equal(t, "-0:01", view.lastCountdown().formatted)
	for _, d := range view.countdown {
		if strings.HasPrefix(d.formatted, "-") {
			require.Equal(t, "-0:01", d.formatted)
		}
	}

	requests := transport.ofType(EventGetRoomStatus)
	require.Len(t, requests, 1)
	require.Equal(t, &GetRoomStatus{RoomID: "general"}, requests[0])
}

func TestCountdownKeepsAskingUntilReset(t *testing.T) {
	clock, loop, view, transport, timer := newCountdownFixture()
	var st CountdownState

	timer.Start(&st, "general", 0)
	clock.Advance(3 * time.Second)
	loop.RunPending()

	require.Equal(t, -1, st.SecondsRemaining)
	require.Len(t, transport.ofType(EventGetRoomStatus), 3)

	// A fresh authoritative value resumes normal counting
	timer.Start(&st, "general", 42)
	require.Equal(t, "0:42", view.lastCountdown().formatted)
	clock.Advance(time.Second)
	loop.RunPending()
	require.Equal(t, "0:41", view.lastCountdown().formatted)
	require.Len(t, transport.ofType(EventGetRoomStatus), 3)
}

func TestCountdownRestartKeepsSingleTick(t *testing.T) {
	clock, loop, view, _, timer := newCountdownFixture()
	var st CountdownState

	timer.Start(&st, "general", 10)
	clock.Advance(3 * time.Second)
	loop.RunPending()

	timer.Start(&st, "general", 100)
	before := len(view.countdown)

	clock.Advance(time.Second)
	loop.RunPending()

	require.Len(t, view.countdown, before+1)
	require.Equal(t, "1:39", view.lastCountdown().formatted)
}

func TestCountdownStop(t *testing.T) {
	clock, loop, view, _, timer := newCountdownFixture()
	var st CountdownState

	timer.Stop(&st)
	timer.Start(&st, "general", 60)
	timer.Stop(&st)
	timer.Stop(&st)

	clock.Advance(10 * time.Second)
	loop.RunPending()

	require.Len(t, view.countdown, 1)
	require.False(t, timer.Running(&st))
}
