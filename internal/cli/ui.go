package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// Styles shared by the commands.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

var (
	iconSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	iconFailure = lipgloss.NewStyle().Foreground(colorRed).Render("✗")
	iconInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
	iconArrow   = StyleDim.Render("→")
)

// printer writes human-readable command output. Logs go to the logger's
// writer instead, so piping stdout only captures results.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer { return printer{w: w} }

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p printer) blank() { fmt.Fprintln(p.w) }

func (p printer) success(format string, args ...any) {
	p.line(iconSuccess + " " + fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	p.line(iconFailure + " " + fmt.Sprintf(format, args...))
}

func (p printer) info(format string, args ...any) {
	p.line(iconInfo + " " + fmt.Sprintf(format, args...))
}

// detail prints an indented, dimmed line under the previous one.
func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints a path that was written.
func (p printer) file(path string) {
	p.line("  " + iconArrow + " " + StyleValue.Render(path))
}

func (p printer) field(key, value string) {
	p.line(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// stats prints counters on one dim line, separated by middle dots.
func (p printer) stats(parts ...string) {
	p.line("  " + StyleDim.Render(strings.Join(parts, " · ")))
}
