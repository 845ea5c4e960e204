package session

import (
	"fmt"
	"time"
)

const (
	// DefaultTickInterval is the local countdown resolution
	DefaultTickInterval = time.Second

	// WarningThresholdSeconds turns the countdown display into a warning
	WarningThresholdSeconds = 30
)

// CountdownTimer ticks a local countdown to the next message clear.
//
// The server is authoritative: the value is only ever reset from a server
// payload and otherwise decremented once per tick. Once the countdown has
// run past zero without a reset, every tick asks the server for status
// instead of extrapolating further.
type CountdownTimer struct {
	sched Scheduler
	emit  func(Outbound)
	view  View
	tick  time.Duration
}

// NewCountdownTimer creates a countdown timer
func NewCountdownTimer(sched Scheduler, emit func(Outbound), view View, tick time.Duration) *CountdownTimer {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &CountdownTimer{
		sched: sched,
		emit:  emit,
		view:  view,
		tick:  tick,
	}
}

// Start resets the countdown to an authoritative value and starts ticking
func (c *CountdownTimer) Start(st *CountdownState, roomID string, seconds int) {
	c.Stop(st)

	st.SecondsRemaining = seconds
	st.WarningActive = seconds <= WarningThresholdSeconds

	c.step(st, roomID)
	st.tickHandle = c.sched.Every(c.tick, func() {
		c.step(st, roomID)
	})
}

// Stop cancels the tick; safe when nothing is running
func (c *CountdownTimer) Stop(st *CountdownState) {
	st.tickHandle.Stop()
	st.tickHandle = nil
}

// Running reports whether st has an active tick
func (c *CountdownTimer) Running(st *CountdownState) bool {
	return st.tickHandle.Active()
}

func (c *CountdownTimer) step(st *CountdownState, roomID string) {
	current := st.SecondsRemaining
	c.view.SetCountdownDisplay(FormatCountdown(current), current <= WarningThresholdSeconds)

	if current < 0 {
		c.emit(&GetRoomStatus{RoomID: roomID})
		return
	}

	st.SecondsRemaining = current - 1
	st.WarningActive = st.SecondsRemaining <= WarningThresholdSeconds
}

// FormatCountdown renders seconds as m:ss
func FormatCountdown(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%d:%02d", sign, seconds/60, seconds%60)
}
