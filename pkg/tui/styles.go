// Maude - governed chat client for the governor daemon
// License: MIT

package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7B5CD6") // governor violet
	secondaryColor = lipgloss.Color("#7B8794")
	errorColor     = lipgloss.Color("#E74C3C")
	successColor   = lipgloss.Color("#2ECC71")
	warningColor   = lipgloss.Color("#F39C12")

	userLabelStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3498DB")).
				Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	statusBarOKStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#2C3E50")).
				Foreground(lipgloss.Color("#ECF0F1")).
				Padding(0, 1)

	statusBarWarnStyle = lipgloss.NewStyle().
				Background(warningColor).
				Foreground(lipgloss.Color("#1B2631")).
				Padding(0, 1)

	statusBarViolationStyle = lipgloss.NewStyle().
				Background(errorColor).
				Foreground(lipgloss.Color("#FDFEFE")).
				Padding(0, 1)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34495E"))
)
