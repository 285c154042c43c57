package main

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#6B7280")
	warning = lipgloss.Color("#FFC107")
	info    = lipgloss.Color("#2196F3")

	nameStyle       = lipgloss.NewStyle().Bold(true).Foreground(accent)
	idStyle         = lipgloss.NewStyle().Foreground(muted)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(muted)
	successStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	warnStyle       = lipgloss.NewStyle().Foreground(warning)
	suggestionStyle = lipgloss.NewStyle().Italic(true).Foreground(info)
)
