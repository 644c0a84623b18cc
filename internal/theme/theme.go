// Package theme provides the Lip Gloss color palette and reusable styles
// for the milvus-admin console. It is a leaf package with no internal
// imports to avoid import cycles.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Load-state colors.
var (
	ColorNotExist  = lipgloss.Color("#374151")
	ColorNotLoaded = lipgloss.Color("#9ca3af")
	ColorLoading   = lipgloss.Color("#d97706")
	ColorLoaded    = lipgloss.Color("#16a34a")
	ColorUnknown   = lipgloss.Color("#6b7280")
)

// Session colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorConnecting   = lipgloss.Color("#d97706")
	ColorFailed       = lipgloss.Color("#dc2626")
	ColorDisconnected = lipgloss.Color("#6b7280")
)

// Field type colors.
var (
	ColorVector = lipgloss.Color("#a855f7")
	ColorScalar = lipgloss.Color("#3b82f6")
	ColorText   = lipgloss.Color("#06b6d4")
	ColorJSON   = lipgloss.Color("#10b981")
)

// Progress bar thresholds.
var (
	ColorProgressLow  = lipgloss.Color("#dc2626") // <50%
	ColorProgressMid  = lipgloss.Color("#d97706") // 50-99%
	ColorProgressDone = lipgloss.Color("#22c55e")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorAccent  = lipgloss.Color("#38bdf8")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// LoadStateColor returns the color for a load state name as produced by
// client.LoadState.String.
func LoadStateColor(state string) lipgloss.Color {
	switch state {
	case "NotExist":
		return ColorNotExist
	case "NotLoaded":
		return ColorNotLoaded
	case "Loading":
		return ColorLoading
	case "Loaded":
		return ColorLoaded
	default:
		return ColorUnknown
	}
}

// LoadStateGlyph returns a Unicode glyph for a load state name.
func LoadStateGlyph(state string) string {
	switch state {
	case "NotExist":
		return "∅"
	case "NotLoaded":
		return "○"
	case "Loading":
		return "◐"
	case "Loaded":
		return "●"
	default:
		return "?"
	}
}

// LoadStateBadge renders glyph and name in the state's color.
func LoadStateBadge(state string) string {
	return lipgloss.NewStyle().
		Foreground(LoadStateColor(state)).
		Render(LoadStateGlyph(state) + " " + state)
}

// FieldTypeColor returns the color for a schema field type.
func FieldTypeColor(t string) lipgloss.Color {
	switch {
	case strings.HasSuffix(t, "_vector"):
		return ColorVector
	case t == "varchar":
		return ColorText
	case t == "json" || t == "array":
		return ColorJSON
	case t == "":
		return ColorDefault
	default:
		return ColorScalar
	}
}

// ProgressColor returns the color for a completion fraction in [0,1].
func ProgressColor(p float64) lipgloss.Color {
	switch {
	case p >= 1:
		return ColorProgressDone
	case p >= 0.5:
		return ColorProgressMid
	default:
		return ColorProgressLow
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(lipgloss.Color("#1f2937"))

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	StyleKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)
)
