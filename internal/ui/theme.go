package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done                                lipgloss.Style
	BoxUnchecked, BoxChecked                      string
	Border                                        lipgloss.Border
	BorderColor                                   lipgloss.TerminalColor
	SymDone, SymCross, SymPending                 string
}

var current = classic()

// Themes lists the accepted theme names.
var Themes = []string{"classic", "neon", "mono"}

func classic() Theme {
	return Theme{
		Name:         "classic",
		Title:        lipgloss.NewStyle().Bold(true),
		Muted:        lipgloss.NewStyle().Faint(true),
		Accent:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected:     lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:         lipgloss.NewStyle().Faint(true).Strikethrough(true),
		BoxUnchecked: "☐", BoxChecked: "☑",
		Border:      lipgloss.NormalBorder(),
		BorderColor: lipgloss.Color("8"),
		SymDone:     "✔", SymCross: "✖", SymPending: "•",
	}
}

// SetTheme switches the current theme. Unknown names select classic.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		t := classic()
		t.Name = "neon"
		t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
		t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		t.Pending = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		t.Selected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("13"))
		t.BoxUnchecked, t.BoxChecked = "◻", "◼"
		t.Border = lipgloss.RoundedBorder()
		t.BorderColor = lipgloss.Color("13")
		current = t
	case "mono":
		plain := lipgloss.NewStyle()
		current = Theme{
			Name:  "mono",
			Title: plain, Muted: plain, Accent: plain, Success: plain, Error: plain, Pending: plain,
			Selected:     plain.Reverse(true),
			Done:         plain,
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			Border:      asciiBorder,
			BorderColor: lipgloss.NoColor{},
			SymDone:     "x", SymCross: "!", SymPending: "-",
		}
	default:
		current = classic()
	}
}

var asciiBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

// Current returns the active theme.
func Current() Theme { return current }
