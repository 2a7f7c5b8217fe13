// Package progress draws a single-line transfer progress bar on a terminal.
package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 30

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	fillStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Bar tracks bytes against a total and redraws in place. It is not safe for
// concurrent use; transfers report progress from a single goroutine.
type Bar struct {
	out   io.Writer
	label string
	total int64
	done  int64
	width int
	ended bool
}

// New returns a bar for total bytes. A nil out disables drawing.
func New(out io.Writer, label string, total int64) *Bar {
	if total < 0 {
		total = 0
	}
	return &Bar{out: out, label: label, total: total, width: defaultWidth}
}

// Add advances the bar by n bytes and redraws.
func (b *Bar) Add(n int64) {
	if b.ended || n <= 0 {
		return
	}
	b.done += n
	b.draw("\r")
}

// Finish snaps the bar to its total and ends the line. The size hint is
// advisory, so the count may not have reached the total on its own.
func (b *Bar) Finish() {
	if b.ended {
		return
	}
	if b.done < b.total {
		b.done = b.total
	}
	b.draw("\r")
	if b.out != nil {
		_, _ = io.WriteString(b.out, "\n")
	}
	b.ended = true
}

func (b *Bar) Done() int64 { return b.done }

// String renders the current state, for example
// "Receiving [#####.....] 12KB / 24KB".
func (b *Bar) String() string {
	filled := b.width
	if b.total > 0 {
		filled = int(min(b.done, b.total) * int64(b.width) / b.total)
	}
	return fmt.Sprintf("%s [%s%s] %s",
		labelStyle.Render(b.label),
		fillStyle.Render(strings.Repeat("#", filled)),
		emptyStyle.Render(strings.Repeat(".", b.width-filled)),
		countStyle.Render(fmt.Sprintf("%dKB / %dKB", KB(b.done), KB(b.total))),
	)
}

func (b *Bar) draw(prefix string) {
	if b.out == nil {
		return
	}
	_, _ = io.WriteString(b.out, prefix+b.String())
}

// KB converts bytes to the whole kilobytes shown on the bar.
func KB(n int64) int64 {
	return n / 1024
}
