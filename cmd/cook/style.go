package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cmdStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	expandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// cutOrFill cuts s to n cells, or fills it with spaces to be n cells.
func cutOrFill(s string, n int) string {
	if n < 0 {
		return s
	}
	w := lipgloss.Width(s)
	if w > n {
		r := []rune(s)
		for lipgloss.Width(string(r)) > n {
			r = r[:len(r)-1]
		}
		return string(r)
	}
	return s + strings.Repeat(" ", n-w)
}
