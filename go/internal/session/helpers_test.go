package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type systemMessage struct {
	text string
	kind SystemKind
}

type roomTitle struct {
	name      string
	userCount int
}

type typingDisplay struct {
	text    string
	visible bool
}

type countdownDisplay struct {
	formatted string
	warning   bool
}

type recordingView struct {
	messages  []Message
	system    []systemMessage
	clears    int
	statuses  []ConnectionKind
	titles    []roomTitle
	typing    []typingDisplay
	countdown []countdownDisplay
}

func (v *recordingView) RenderMessage(msg Message) {
	v.messages = append(v.messages, msg)
}

func (v *recordingView) RenderSystemMessage(text string, kind SystemKind) {
	v.system = append(v.system, systemMessage{text: text, kind: kind})
}

func (v *recordingView) ClearAll() {
	v.clears++
	v.messages = nil
	v.system = nil
}

func (v *recordingView) SetConnectionStatus(_ string, kind ConnectionKind) {
	v.statuses = append(v.statuses, kind)
}

func (v *recordingView) SetRoomTitle(name string, userCount int) {
	v.titles = append(v.titles, roomTitle{name: name, userCount: userCount})
}

func (v *recordingView) SetTypingDisplay(text string, visible bool) {
	v.typing = append(v.typing, typingDisplay{text: text, visible: visible})
}

func (v *recordingView) SetCountdownDisplay(formatted string, warning bool) {
	v.countdown = append(v.countdown, countdownDisplay{formatted: formatted, warning: warning})
}

func (v *recordingView) systemOfKind(kind SystemKind) []systemMessage {
	var out []systemMessage
	for _, m := range v.system {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (v *recordingView) lastCountdown() countdownDisplay {
	if len(v.countdown) == 0 {
		return countdownDisplay{}
	}
	return v.countdown[len(v.countdown)-1]
}

func (v *recordingView) lastTyping() typingDisplay {
	if len(v.typing) == 0 {
		return typingDisplay{}
	}
	return v.typing[len(v.typing)-1]
}

type fakeTransport struct {
	connected bool
	emitted   []Outbound
	err       error
}

func (f *fakeTransport) Emit(ev Outbound) error {
	f.emitted = append(f.emitted, ev)
	return f.err
}

func (f *fakeTransport) Connected() bool {
	return f.connected
}

func (f *fakeTransport) ofType(eventType EventType) []Outbound {
	var out []Outbound
	for _, ev := range f.emitted {
		if ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeTransport) types() []EventType {
	out := make([]EventType, 0, len(f.emitted))
	for _, ev := range f.emitted {
		out = append(out, ev.EventType())
	}
	return out
}

type harness struct {
	clock     *clockwork.FakeClock
	loop      *Loop
	view      *recordingView
	transport *fakeTransport
	ctrl      *Controller
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()

	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	clock := clockwork.NewFakeClock()
	loop := NewLoop(clock)
	view := &recordingView{}
	transport := &fakeTransport{}

	return &harness{
		clock:     clock,
		loop:      loop,
		view:      view,
		transport: transport,
		ctrl:      NewController(cfg, loop, transport, view),
	}
}

func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.loop.RunPending()
}

func (h *harness) connect() {
	h.transport.connected = true
	h.ctrl.Handle(&TransportConnected{})
}

func (h *harness) disconnect() {
	h.transport.connected = false
	h.ctrl.Handle(&TransportDisconnected{})
}

// joinActive joins roomID and acknowledges it with timeUntilClear seconds
func (h *harness) joinActive(roomID string, timeUntilClear int) {
	h.ctrl.JoinRoom(roomID)
	h.ctrl.Handle(&RoomJoined{
		RoomID:         roomID,
		RoomName:       roomID,
		IsDefault:      roomID == DefaultRoomID,
		ClearInterval:  5,
		TimeUntilClear: timeUntilClear,
	})
}

func intPtr(v int) *int {
	return &v
}
