package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the lipgloss styles bound to one output writer, so color is
// only emitted when that writer is a terminal.
type styles struct {
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warn    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (s styles) heading(w io.Writer, title string) {
	fmt.Fprintln(w, s.Heading.Render("== "+title+" =="))
}

// PrintError writes err to w in the error style.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, newStyles(w).Error.Render("Error: "+err.Error()))
}
