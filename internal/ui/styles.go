package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#86C58F"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#E8B86D"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#F28B82"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#3559A8", Dark: "#8AB4F8"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	BoldStyle   = lipgloss.NewStyle().Bold(true)
)

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderBold(s string) string   { return BoldStyle.Render(s) }
