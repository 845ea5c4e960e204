package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selfStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	remoteStyle    = lipgloss.NewStyle()
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	welcomeStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("63"))
	clearedStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
	expiryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	typingStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	warningStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)

	statusStyles = map[string]lipgloss.Style{
		"connecting":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"connected":    lipgloss.NewStyle().Foreground(lipgloss.Color("118")),
		"disconnected": lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"error":        lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)
