package session

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTypingIdleTimeout is how long after the last keystroke typing is considered stopped
const DefaultTypingIdleTimeout = 2000 * time.Millisecond

// TypingAggregator debounces local typing intent and renders the remote typing count.
// It owns no session state; every call operates on the TypingState handed in by the controller.
type TypingAggregator struct {
	sched Scheduler
	emit  func(Outbound)
	view  View
	idle  time.Duration

	// Last display pushed to the view, used to suppress identical updates
	rendered    bool
	shownText   string
	shownActive bool
}

// NewTypingAggregator creates a typing aggregator
func NewTypingAggregator(sched Scheduler, emit func(Outbound), view View, idle time.Duration) *TypingAggregator {
	if idle <= 0 {
		idle = DefaultTypingIdleTimeout
	}
	return &TypingAggregator{
		sched: sched,
		emit:  emit,
		view:  view,
		idle:  idle,
	}
}

// InputChanged runs the debounce for one change of the local input in roomID
func (a *TypingAggregator) InputChanged(st *TypingState, roomID, input string) {
	hasText := strings.TrimSpace(input) != ""

	if hasText && !st.LocalIsTyping {
		a.emit(&TypingStart{RoomID: roomID})
		st.LocalIsTyping = true
	}

	st.idleDeadline.Stop()
	st.idleDeadline = nil

	if hasText {
		st.idleDeadline = a.sched.After(a.idle, func() {
			st.idleDeadline = nil
			if st.LocalIsTyping {
				a.emit(&TypingStop{RoomID: roomID})
				st.LocalIsTyping = false
			}
		})
		return
	}

	// Empty input stops immediately instead of waiting for the idle timer
	if st.LocalIsTyping {
		a.emit(&TypingStop{RoomID: roomID})
		st.LocalIsTyping = false
	}
}

// ForceStop cancels the idle timer and emits typing_stop only if we are typing
func (a *TypingAggregator) ForceStop(st *TypingState, roomID string) {
	st.idleDeadline.Stop()
	st.idleDeadline = nil

	if !st.LocalIsTyping {
		return
	}
	a.emit(&TypingStop{RoomID: roomID})
	st.LocalIsTyping = false
}

// RemoteCount stores the server's aggregated typing count and updates the display
func (a *TypingAggregator) RemoteCount(st *TypingState, count int) {
	if count < 0 {
		count = 0
	}
	st.RemoteTypingCount = count

	if count == 0 {
		a.show("", false)
		return
	}
	a.show(TypingText(count), true)
}

// Hide hides the typing display without touching state
func (a *TypingAggregator) Hide() {
	a.show("", false)
}

func (a *TypingAggregator) show(text string, visible bool) {
	if a.rendered && a.shownActive == visible && a.shownText == text {
		return
	}
	a.rendered = true
	a.shownText = text
	a.shownActive = visible
	a.view.SetTypingDisplay(text, visible)
}

// TypingText is the display wording for count remote typists
func TypingText(count int) string {
	switch {
	case count <= 0:
		return ""
	case count == 1:
		return "Someone is typing..."
	default:
		return fmt.Sprintf("%d people are typing...", count)
	}
}
