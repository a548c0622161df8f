package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"aqve/internal/service"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// terminalNotifier shows mutation outcomes on the terminal. It remembers
// whether an error was shown so the caller does not print it twice.
type terminalNotifier struct {
	mu       sync.Mutex
	w        io.Writer
	r        *lipgloss.Renderer
	reported bool
}

func newTerminalNotifier(w io.Writer) *terminalNotifier {
	return &terminalNotifier{w: w, r: lipgloss.NewRenderer(w)}
}

func (n *terminalNotifier) Notify(_ context.Context, e service.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if e.Level == service.LevelError {
		n.reported = true
		fmt.Fprintln(n.w, errorStyle.Renderer(n.r).Render("✗ "+e.Message))
		return
	}
	line := successStyle.Renderer(n.r).Render("✓ " + e.Message)
	if e.Booking != nil {
		line += " " + mutedStyle.Renderer(n.r).Render("("+e.Booking.ID+")")
	}
	fmt.Fprintln(n.w, line)
}

// Reported reports whether an error event has been shown.
func (n *terminalNotifier) Reported() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reported
}

// status renders a one-word status line for the watch command.
func (n *terminalNotifier) status(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, mutedStyle.Renderer(n.r).Render(fmt.Sprintf(format, args...)))
}
