package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/cloudmig/internal/config"
)

// Catppuccin Mocha palette, overridable from the [theme] config section.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorBright = lipgloss.Color("#cdd6f4")
)

// Styles rebuilt by rebuildStyles() after color changes.
var (
	styleIconDone       lipgloss.Style
	styleIconFailed     lipgloss.Style
	styleIconSkipped    lipgloss.Style
	styleIconWarn       lipgloss.Style
	styleFileDir        lipgloss.Style
	styleFilePath       lipgloss.Style
	styleFileSize       lipgloss.Style
	styleStage          lipgloss.Style
	styleError          lipgloss.Style
	styleProgressFilled lipgloss.Style
	styleProgressEmpty  lipgloss.Style
	styleSparkline      lipgloss.Style
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	styleIconDone = lipgloss.NewStyle().Foreground(ColorGreen)
	styleIconFailed = lipgloss.NewStyle().Foreground(ColorRed)
	styleIconSkipped = lipgloss.NewStyle().Foreground(ColorMuted)
	styleIconWarn = lipgloss.NewStyle().Foreground(ColorYellow)
	styleFileDir = lipgloss.NewStyle().Foreground(ColorMuted)
	styleFilePath = lipgloss.NewStyle().Foreground(ColorBright)
	styleFileSize = lipgloss.NewStyle().Foreground(ColorMuted)
	styleStage = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(ColorRed)
	styleProgressFilled = lipgloss.NewStyle().Foreground(ColorGreen)
	styleProgressEmpty = lipgloss.NewStyle().Foreground(ColorMuted)
	styleSparkline = lipgloss.NewStyle().Foreground(ColorBlue)
}

// ApplyTheme overrides palette colors with any set in cfg.
func ApplyTheme(cfg config.ThemeConfig) {
	set := func(dst *lipgloss.Color, v *string) {
		if v != nil && *v != "" {
			*dst = lipgloss.Color(*v)
		}
	}
	set(&ColorGreen, cfg.Green)
	set(&ColorBlue, cfg.Blue)
	set(&ColorYellow, cfg.Yellow)
	set(&ColorRed, cfg.Red)
	set(&ColorMuted, cfg.Muted)
	set(&ColorBright, cfg.Bright)
	rebuildStyles()
}
