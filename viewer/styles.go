package viewer

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")

	appStyle   = lipgloss.NewStyle().Foreground(baseFg)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)

	layerStyles = [numLayers]lipgloss.Style{
		layerTree:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		layerObject: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
		layerHit:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		layerQuery:  lipgloss.NewStyle().Foreground(lipgloss.Color("#0000FF")),
	}
)
