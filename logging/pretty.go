package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true)
)

// PrettyLogger prints human-facing console lines such as the startup banner.
// It bypasses the structured loggers.
type PrettyLogger struct {
	w io.Writer
}

// NewPrettyLoggerTo writes to w.
func NewPrettyLoggerTo(w io.Writer) *PrettyLogger {
	return &PrettyLogger{w: w}
}

// Success prints a checkmarked headline.
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.w, "%s %s\n", okStyle.Render("✓"), okStyle.Render(message))
}

// Failure prints a crossed headline followed by err.
func (p *PrettyLogger) Failure(message string, err error) {
	line := failStyle.Render("✗") + " " + failStyle.Render(message)
	if err != nil {
		line += ": " + err.Error()
	}
	fmt.Fprintln(p.w, line)
}

// Field prints an indented key and value.
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.w, "  %s: %s\n", keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
}

// Path prints an indented label and filesystem path.
func (p *PrettyLogger) Path(label, path string) {
	fmt.Fprintf(p.w, "  %s: %s\n", keyStyle.Render(label), pathStyle.Render(path))
}
