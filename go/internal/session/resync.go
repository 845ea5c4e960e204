package session

import (
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultStatusPollInterval is how often an active room pulls its status
const DefaultStatusPollInterval = 30 * time.Second

// ResyncPolicy reacts to connectivity changes and runs the periodic status
// poll that corrects for missed push events.
type ResyncPolicy struct {
	sched     Scheduler
	emit      func(Outbound)
	view      View
	countdown *CountdownTimer
	typing    *TypingAggregator
	interval  time.Duration

	connected bool
	status    ConnectionKind
	poll      *Timer
}

// NewResyncPolicy creates a resync policy
func NewResyncPolicy(sched Scheduler, emit func(Outbound), view View, countdown *CountdownTimer, typing *TypingAggregator, interval time.Duration) *ResyncPolicy {
	if interval <= 0 {
		interval = DefaultStatusPollInterval
	}
	return &ResyncPolicy{
		sched:     sched,
		emit:      emit,
		view:      view,
		countdown: countdown,
		typing:    typing,
		interval:  interval,
		status:    ConnectionDisconnected,
	}
}

// Connected reports the last connectivity observed
func (p *ResyncPolicy) Connected() bool {
	return p.connected
}

// Status returns the current connection status
func (p *ResyncPolicy) Status() ConnectionKind {
	return p.status
}

// OnConnecting records that the transport is dialing
func (p *ResyncPolicy) OnConnecting() {
	p.setStatus("Connecting...", ConnectionConnecting)
}

// OnConnected records connectivity; joining is left to the session
func (p *ResyncPolicy) OnConnected() {
	p.connected = true
	p.setStatus("Connected", ConnectionConnected)
}

// OnDisconnected suspends every timer whose authoritative source is now unreachable
func (p *ResyncPolicy) OnDisconnected(rs *roomState) {
	p.connected = false
	p.setStatus("Disconnected", ConnectionDisconnected)

	if rs != nil {
		p.countdown.Stop(&rs.Countdown)
		p.typing.ForceStop(&rs.Typing, rs.Room.RoomID)
	}
	p.StopPolling()
	p.typing.Hide()
}

// OnError records a transport error; it is not fatal and changes nothing else
func (p *ResyncPolicy) OnError(err error) {
	log.Error().Err(err).Msg("transport error")
	p.setStatus("Error", ConnectionError)
}

// StartPolling (re)starts the status poll. activeRoom returns the room to
// poll, or false when the session is not active.
func (p *ResyncPolicy) StartPolling(activeRoom func() (string, bool)) {
	p.StopPolling()
	p.poll = p.sched.Every(p.interval, func() {
		roomID, ok := activeRoom()
		if !ok || !p.connected {
			return
		}
		log.Debug().Str("room_id", roomID).Msg("polling room status")
		p.emit(&GetRoomStatus{RoomID: roomID})
	})
}

// StopPolling cancels the status poll
func (p *ResyncPolicy) StopPolling() {
	p.poll.Stop()
	p.poll = nil
}

// Polling reports whether the status poll is scheduled
func (p *ResyncPolicy) Polling() bool {
	return p.poll.Active()
}

func (p *ResyncPolicy) setStatus(text string, kind ConnectionKind) {
	p.status = kind
	p.view.SetConnectionStatus(text, kind)
}
