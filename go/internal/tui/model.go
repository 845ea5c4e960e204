package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/rooms"
	"github.com/livechat-docker/livechat/go/internal/session"
	"github.com/livechat-docker/livechat/go/internal/view"
)

const (
	// MaxMessageLength caps the composer
	MaxMessageLength = 500

	// CharWarningThreshold is where the character counter turns red
	CharWarningThreshold = 450

	helpText = "Commands: /join <room-id>, /rooms, /create <name> [clear-min] [duration-min], /quit"
)

// Session is what the UI can ask of the chat session. Implementations must
// hand the work to the session loop and return immediately.
type Session interface {
	InputChanged(text string)
	SendMessage(text string)
	SelectRoom(roomID string)
	OpenRoomList()
	CloseRoomList()
	CreateRoom(name, clearInterval, roomDuration string)
}

type Model struct {
	session  Session
	viewport viewport.Model
	input    textinput.Model

	lines     []string
	status    statusMsg
	title     titleMsg
	typing    typingMsg
	countdown countdownMsg

	listVisible bool
	roomList    []rooms_client.Room
	currentRoom string
	cursor      int

	width int
}

func NewModel(s Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or /help"
	ti.CharLimit = MaxMessageLength
	ti.Prompt = "> "
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return Model{
		session:  s,
		viewport: vp,
		input:    ti,
		status:   statusMsg{text: "Connecting...", kind: session.ConnectionConnecting},
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = ev.Width
		m.viewport.Width = ev.Width
		// Header, status, typing and composer lines
		m.viewport.Height = max(1, ev.Height-4)
		m.input.Width = max(10, ev.Width-12)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(ev)

	case messageMsg:
		m.appendLine(renderMessage(ev.msg))
		return m, nil
	case systemMsg:
		m.appendLine(renderSystem(ev.text, ev.kind))
		return m, nil
	case clearMsg:
		m.lines = nil
		m.refresh()
		return m, nil
	case statusMsg:
		m.status = ev
		return m, nil
	case titleMsg:
		m.title = ev
		return m, nil
	case typingMsg:
		m.typing = ev
		return m, nil
	case countdownMsg:
		m.countdown = ev
		return m, nil
	case roomListMsg:
		m.listVisible = true
		m.roomList = ev.rooms
		m.currentRoom = ev.current
		if m.cursor >= len(m.roomList) {
			m.cursor = max(0, len(m.roomList)-1)
		}
		return m, nil
	case hideRoomListMsg:
		m.listVisible = false
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.listVisible {
			m.session.CloseRoomList()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd

	case "up", "down":
		if m.listVisible && len(m.roomList) > 0 {
			if key.String() == "up" {
				m.cursor = (m.cursor - 1 + len(m.roomList)) % len(m.roomList)
			} else {
				m.cursor = (m.cursor + 1) % len(m.roomList)
			}
		}
		return m, nil

	case "enter":
		return m.submit()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if after := m.input.Value(); after != before {
		m.session.InputChanged(after)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if text == "" {
		if m.listVisible && len(m.roomList) > 0 {
			m.session.SelectRoom(m.roomList[m.cursor].RoomID)
		}
		return m, nil
	}

	m.input.SetValue("")
	if strings.HasPrefix(text, "/") {
		m.session.InputChanged("")
		return m.runCommand(text)
	}

	m.session.SendMessage(text)
	return m, nil
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	args := fields[1:]

	switch fields[0] {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/help":
		m.appendLine(renderSystem(helpText, session.SystemInfo))

	case "/rooms":
		if m.listVisible {
			m.session.CloseRoomList()
		} else {
			m.session.OpenRoomList()
		}

	case "/join":
		if len(args) != 1 {
			m.appendLine(renderSystem("Usage: /join <room-id>", session.SystemError))
			break
		}
		m.session.SelectRoom(args[0])

	case "/create":
		name, clearInterval, roomDuration := parseCreateArgs(args)
		m.session.CreateRoom(name, clearInterval, roomDuration)

	default:
		m.appendLine(renderSystem(fmt.Sprintf("Unknown command %s. %s", fields[0], helpText), session.SystemError))
	}
	return m, nil
}

// parseCreateArgs splits "<name words...> [clear] [duration]" taking up to
// two trailing integers as the numeric options.
func parseCreateArgs(args []string) (name, clearInterval, roomDuration string) {
	end := len(args)
	var numbers []string
	for end > 1 && len(numbers) < 2 {
		if _, err := strconv.Atoi(args[end-1]); err != nil {
			break
		}
		numbers = append([]string{args[end-1]}, numbers...)
		end--
	}

	name = strings.Join(args[:end], " ")
	if len(numbers) > 0 {
		clearInterval = numbers[0]
	}
	if len(numbers) > 1 {
		roomDuration = numbers[1]
	}
	return name, clearInterval, roomDuration
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(m.lines, "\n")))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.listVisible {
		b.WriteString(m.roomListView())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.typing.visible {
		b.WriteString(typingStyle.Render(m.typing.text))
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(m.counterView())
	return b.String()
}

func (m Model) headerView() string {
	title := "Live Chat"
	if m.title.name != "" {
		title = view.RoomTitle(m.title.name, m.title.userCount)
	}

	status := statusStyles[string(m.status.kind)].Render(m.status.text)

	var countdown string
	if m.countdown.formatted != "" {
		style := countdownStyle
		if m.countdown.warning {
			style = warningStyle
		}
		countdown = style.Render("Messages clear in " + m.countdown.formatted)
	}

	left := titleStyle.Render(title)
	right := lipgloss.JoinHorizontal(lipgloss.Top, countdown, "  ", status)
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) roomListView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Rooms"))
	b.WriteString("  (enter to join, esc to close)\n")

	if len(m.roomList) == 0 {
		b.WriteString("No rooms available")
	}
	for i, room := range m.roomList {
		line := rooms.FormatRoom(room, m.currentRoom)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(m.roomList)-1 {
			b.WriteString("\n")
		}
	}

	return panelStyle.Width(max(20, m.width-4)).Render(b.String())
}

func (m Model) counterView() string {
	count := len([]rune(m.input.Value()))
	text := fmt.Sprintf("%d/%d", count, MaxMessageLength)
	if count > CharWarningThreshold {
		return warningStyle.Render(text)
	}
	return countdownStyle.Render(text)
}

func renderMessage(msg session.Message) string {
	style := remoteStyle
	if msg.Origin == session.OriginSelf {
		style = selfStyle
	}
	return timestampStyle.Render(msg.Timestamp) + " " + style.Render(msg.Text)
}

func renderSystem(text string, kind session.SystemKind) string {
	switch kind {
	case session.SystemWelcome:
		return welcomeStyle.Render(text)
	case session.SystemClearNotification:
		return clearedStyle.Render(text)
	case session.SystemExpiryWarning:
		return expiryStyle.Render(text)
	case session.SystemError:
		return errorStyle.Render(text)
	default:
		return infoStyle.Render(text)
	}
}
