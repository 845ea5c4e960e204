package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultExpiryGrace is how long an expired room stays on screen before falling back
	DefaultExpiryGrace = 5000 * time.Millisecond

	// DefaultAutoJoinDelay is the delay between Start and the initial join
	DefaultAutoJoinDelay = time.Second

	defaultWelcome = "Welcome to General Chat! Messages clear every 5 minutes."
	defaultExpired = "This room has expired."
)

// Config holds the timing and behaviour knobs of a session
type Config struct {
	DefaultRoomID      string
	AutoJoinRoom       string // empty disables the initial join
	AutoJoinDelay      time.Duration
	TypingIdleTimeout  time.Duration
	TickInterval       time.Duration
	StatusPollInterval time.Duration
	ExpiryGrace        time.Duration
	RejoinOnReconnect  bool
}

// DefaultConfig returns the stock session configuration
func DefaultConfig() Config {
	return Config{
		DefaultRoomID:      DefaultRoomID,
		AutoJoinRoom:       DefaultRoomID,
		AutoJoinDelay:      DefaultAutoJoinDelay,
		TypingIdleTimeout:  DefaultTypingIdleTimeout,
		TickInterval:       DefaultTickInterval,
		StatusPollInterval: DefaultStatusPollInterval,
		ExpiryGrace:        DefaultExpiryGrace,
	}
}

// Controller owns the active room and drives every state transition.
// All methods must be called on the event loop.
type Controller struct {
	cfg       Config
	sched     Scheduler
	transport Transport
	view      View

	typing    *TypingAggregator
	countdown *CountdownTimer
	resync    *ResyncPolicy

	phase Phase
	state *roomState

	// Pending automatic joins
	grace    *Timer
	autoJoin *Timer

	// Room to rejoin after a reconnect
	rejoinTarget string
}

// NewController creates a session controller with injected collaborators
func NewController(cfg Config, sched Scheduler, transport Transport, view View) *Controller {
	if cfg.DefaultRoomID == "" {
		cfg.DefaultRoomID = DefaultRoomID
	}
	if cfg.ExpiryGrace <= 0 {
		cfg.ExpiryGrace = DefaultExpiryGrace
	}

	c := &Controller{
		cfg:       cfg,
		sched:     sched,
		transport: transport,
		view:      view,
		phase:     PhaseDisconnected,
	}
	c.typing = NewTypingAggregator(sched, c.emit, view, cfg.TypingIdleTimeout)
	c.countdown = NewCountdownTimer(sched, c.emit, view, cfg.TickInterval)
	c.resync = NewResyncPolicy(sched, c.emit, view, c.countdown, c.typing, cfg.StatusPollInterval)
	return c
}

// Start schedules the initial join of the configured room
func (c *Controller) Start() {
	if c.cfg.AutoJoinRoom == "" {
		return
	}
	roomID := c.cfg.AutoJoinRoom
	c.rejoinTarget = roomID
	c.autoJoin.Stop()
	c.autoJoin = c.sched.After(c.cfg.AutoJoinDelay, func() {
		c.autoJoin = nil
		c.JoinRoom(roomID)
	})
}

// Phase returns the current lifecycle phase
func (c *Controller) Phase() Phase {
	return c.phase
}

// CurrentRoom returns the id of the joined (or joining) room
func (c *Controller) CurrentRoom() string {
	if c.state == nil {
		return ""
	}
	return c.state.Room.RoomID
}

// Handle applies one inbound event. Events are processed strictly in arrival order.
func (c *Controller) Handle(ev Inbound) {
	switch e := ev.(type) {
	case *RoomJoined:
		c.onRoomJoined(e)
	case *NewMessage:
		c.onNewMessage(e)
	case *MessagesCleared:
		c.onMessagesCleared(e)
	case *RoomExpired:
		c.onRoomExpired(e)
	case *RoomStatus:
		c.onRoomStatus(e)
	case *UserCountUpdated:
		c.onUserCountUpdated(e)
	case *TypingUpdate:
		c.onTypingUpdate(e)
	case *ServerError:
		log.Warn().Str("room_id", c.CurrentRoom()).Str("message", e.Message).Msg("server reported an error")
	case *TransportConnecting:
		c.onConnecting()
	case *TransportConnected:
		c.onConnected()
	case *TransportDisconnected:
		c.onDisconnected(e)
	case *TransportFailed:
		c.resync.OnError(e.Err)
	default:
		log.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("ignoring unhandled inbound event")
	}
}

// JoinRoom switches to roomID. It is valid from any phase and never assumes success.
func (c *Controller) JoinRoom(roomID string) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		roomID = c.cfg.DefaultRoomID
	}

	// A manual join supersedes any pending automatic one
	c.grace.Stop()
	c.grace = nil
	c.autoJoin.Stop()
	c.autoJoin = nil

	c.teardown()
	c.state = &roomState{Room: RoomSession{RoomID: roomID}}
	c.rejoinTarget = roomID
	c.typing.Hide()
	c.phase = PhaseJoiningRoom

	log.Info().Str("room_id", roomID).Msg("joining room")
	c.emit(&JoinRoom{RoomID: roomID})
}

// SendMessage sends text to the active room and echoes it locally.
// It reports whether anything was sent.
func (c *Controller) SendMessage(text string) bool {
	msg := strings.TrimSpace(text)
	if msg == "" || c.state == nil || !c.resync.Connected() {
		return false
	}
	// The transport may drop before its disconnect event reaches the loop
	if !c.transport.Connected() {
		return false
	}

	roomID := c.state.Room.RoomID
	c.typing.ForceStop(&c.state.Typing, roomID)
	c.emit(&SendMessage{RoomID: roomID, Message: msg})

	c.view.RenderMessage(Message{
		Text:      msg,
		Timestamp: c.sched.Now().Format("15:04:05"),
		Origin:    OriginSelf,
	})
	return true
}

// InputChanged feeds one change of the composer contents into the typing debounce
func (c *Controller) InputChanged(input string) {
	if c.state == nil || !c.resync.Connected() {
		return
	}
	c.typing.InputChanged(&c.state.Typing, c.state.Room.RoomID, input)
}

// Snapshot returns a copy of the session state
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:         c.phase.String(),
		Connected:     c.resync.Connected(),
		Polling:       c.resync.Polling(),
		RejoinPending: c.grace.Active(),
	}
	if c.state != nil {
		room := c.state.Room
		snap.Room = &room
		snap.LocalIsTyping = c.state.Typing.LocalIsTyping
		snap.RemoteTypingCount = c.state.Typing.RemoteTypingCount
		snap.SecondsRemaining = c.state.Countdown.SecondsRemaining
		snap.WarningActive = c.state.Countdown.WarningActive
		snap.CountdownRunning = c.countdown.Running(&c.state.Countdown)
	}
	return snap
}

func (c *Controller) onRoomJoined(ev *RoomJoined) {
	if c.state == nil || (ev.RoomID != "" && ev.RoomID != c.state.Room.RoomID) {
		log.Debug().
			Str("room_id", ev.RoomID).
			Str("current_room", c.CurrentRoom()).
			Msg("discarding stale room_joined")
		return
	}

	rs := c.state
	rs.Room.RoomName = ev.RoomName
	rs.Room.IsDefault = ev.IsDefault
	rs.Room.ClearIntervalMinutes = ev.ClearInterval
	rs.Room.UserCount = valueOr(ev.UserCount, 0)
	rs.Room.ExpirySeconds = ev.TimeUntilExpiry
	c.phase = PhaseActive

	c.view.SetRoomTitle(rs.Room.RoomName, rs.Room.UserCount)
	c.typing.RemoteCount(&rs.Typing, valueOr(ev.TypingCount, 0))

	// The message list is replaced, never merged with the previous room
	c.view.ClearAll()
	if len(ev.Messages) > 0 {
		for _, m := range ev.Messages {
			c.view.RenderMessage(Message{Text: m.Message, Timestamp: m.Timestamp, Origin: OriginRemote})
		}
		rs.Room.HasShownWelcome = true
	} else if !rs.Room.HasShownWelcome {
		c.view.RenderSystemMessage(welcomeText(rs.Room), SystemWelcome)
		rs.Room.HasShownWelcome = true
	}

	c.countdown.Start(&rs.Countdown, rs.Room.RoomID, ev.TimeUntilClear)
	c.resync.StartPolling(c.activeRoom)

	log.Info().
		Str("room_id", rs.Room.RoomID).
		Str("room_name", rs.Room.RoomName).
		Int("user_count", rs.Room.UserCount).
		Int("history", len(ev.Messages)).
		Int("time_until_clear", ev.TimeUntilClear).
		Msg("joined room")
}

func (c *Controller) onNewMessage(ev *NewMessage) {
	c.view.RenderMessage(Message{Text: ev.Message, Timestamp: ev.Timestamp, Origin: OriginRemote})
}

func (c *Controller) onMessagesCleared(ev *MessagesCleared) {
	c.view.ClearAll()
	c.view.RenderSystemMessage(ev.Message, SystemClearNotification)

	if c.state == nil {
		return
	}
	c.state.Room.ExpirySeconds = ev.TimeUntilExpiry
	c.countdown.Start(&c.state.Countdown, c.state.Room.RoomID, ev.TimeUntilClear)
	c.state.Room.HasShownWelcome = false
}

func (c *Controller) onRoomExpired(ev *RoomExpired) {
	text := ev.Message
	if text == "" {
		text = defaultExpired
	}
	c.view.RenderSystemMessage(text, SystemExpiryWarning)

	fallback := c.cfg.DefaultRoomID
	c.rejoinTarget = fallback
	c.grace.Stop()
	c.grace = c.sched.After(c.cfg.ExpiryGrace, func() {
		c.grace = nil
		c.JoinRoom(fallback)
	})

	log.Info().
		Str("room_id", c.CurrentRoom()).
		Dur("grace", c.cfg.ExpiryGrace).
		Msg("room expired, falling back to default room")
}

func (c *Controller) onRoomStatus(ev *RoomStatus) {
	if c.state == nil {
		log.Debug().Msg("ignoring room_status without a room")
		return
	}
	rs := c.state

	if ev.TimeUntilClear != nil {
		c.countdown.Start(&rs.Countdown, rs.Room.RoomID, *ev.TimeUntilClear)
	}
	if ev.UserCount != nil {
		rs.Room.UserCount = *ev.UserCount
		c.view.SetRoomTitle(rs.Room.RoomName, rs.Room.UserCount)
	}
	if ev.TypingCount != nil {
		c.typing.RemoteCount(&rs.Typing, *ev.TypingCount)
	}
	if ev.TimeUntilExpiry != nil {
		rs.Room.ExpirySeconds = ev.TimeUntilExpiry
	}
	if ev.IsActive != nil && !*ev.IsActive {
		log.Info().Str("room_id", rs.Room.RoomID).Msg("server reports room inactive")
	}
}

func (c *Controller) onUserCountUpdated(ev *UserCountUpdated) {
	if c.state == nil || ev.RoomID != c.state.Room.RoomID {
		log.Debug().
			Str("room_id", ev.RoomID).
			Str("current_room", c.CurrentRoom()).
			Msg("discarding user count for another room")
		return
	}
	c.state.Room.UserCount = ev.UserCount
	c.view.SetRoomTitle(c.state.Room.RoomName, ev.UserCount)
}

func (c *Controller) onTypingUpdate(ev *TypingUpdate) {
	if c.state == nil {
		return
	}
	c.typing.RemoteCount(&c.state.Typing, ev.TypingCount)
}

func (c *Controller) onConnecting() {
	if c.phase == PhaseDisconnected {
		c.phase = PhaseConnecting
	}
	c.resync.OnConnecting()
}

func (c *Controller) onConnected() {
	if c.phase == PhaseDisconnected {
		c.phase = PhaseConnecting
	}
	c.resync.OnConnected()
	log.Info().Str("phase", c.phase.String()).Msg("transport connected")

	if c.cfg.RejoinOnReconnect && c.rejoinTarget != "" && c.phase != PhaseActive && !c.autoJoin.Active() {
		c.JoinRoom(c.rejoinTarget)
	}
}

func (c *Controller) onDisconnected(ev *TransportDisconnected) {
	log.Warn().Err(ev.Reason).Str("room_id", c.CurrentRoom()).Msg("transport disconnected")

	c.phase = PhaseDisconnected
	c.resync.OnDisconnected(c.state)

	// Nothing may fire against a connection that is gone
	if c.grace.Active() {
		c.rejoinTarget = c.cfg.DefaultRoomID
	}
	c.grace.Stop()
	c.grace = nil
	c.autoJoin.Stop()
	c.autoJoin = nil
}

// teardown releases every timer derived from the current room
func (c *Controller) teardown() {
	c.resync.StopPolling()
	if c.state == nil {
		return
	}
	c.typing.ForceStop(&c.state.Typing, c.state.Room.RoomID)
	c.countdown.Stop(&c.state.Countdown)
}

func (c *Controller) activeRoom() (string, bool) {
	if c.phase != PhaseActive || c.state == nil {
		return "", false
	}
	return c.state.Room.RoomID, true
}

func (c *Controller) emit(ev Outbound) {
	if err := c.transport.Emit(ev); err != nil {
		log.Warn().
			Err(err).
			Str("event_type", string(ev.EventType())).
			Msg("failed to emit event")
	}
}

func welcomeText(room RoomSession) string {
	if room.IsDefault {
		return defaultWelcome
	}
	return fmt.Sprintf("Welcome to %s! Messages clear every %d minutes.", room.RoomName, room.ClearIntervalMinutes)
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
