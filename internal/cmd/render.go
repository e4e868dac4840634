package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Shared terminal styles for command output.
var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))
)

// banner prints a section heading with a rule underneath.
func banner(title string) {
	fmt.Println(bannerStyle.Render(title))
	fmt.Println(strings.Repeat("─", 60))
}

// keyValue prints an aligned "label: value" line.
func keyValue(label string, value any) {
	fmt.Printf("%s %v\n", labelStyle.Render(label+":"), value)
}

func successf(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func warnf(format string, args ...any) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}
