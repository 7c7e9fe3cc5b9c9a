package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fairalloc/pkg/types"
)

// DefaultBarWidth is the character width of the longest bar.
const DefaultBarWidth = 40

var (
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	agentStyle    = lipgloss.NewStyle().Bold(true)
	usedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	unusedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	overflowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// TermSink renders stacked per-agent bars to a terminal: the used share of
// each agent's capacity in green, the unused remainder in gray. Bars are
// scaled so the largest capacity spans Width characters. Allocations past
// capacity (Concurrent with a scarce capacity pool) are flagged in red rather
// than drawn, since they have no geometric meaning inside the capacity bar.
type TermSink struct {
	Out   io.Writer
	Width int
}

// NewTermSink creates a sink writing to out with the default bar width.
func NewTermSink(out io.Writer) *TermSink {
	return &TermSink{Out: out, Width: DefaultBarWidth}
}

// Render implements Sink.
func (s *TermSink) Render(label string, capacity types.Capacity, alloc types.Allocation) error {
	width := s.Width
	if width <= 0 {
		width = DefaultBarWidth
	}

	maxCap := 0.0
	for _, cap := range capacity {
		if cap > maxCap {
			maxCap = cap
		}
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")

	for _, agent := range capacity.Agents() {
		cap := capacity[agent]
		used := alloc[agent]

		b.WriteString(fmt.Sprintf("  %s ", agentStyle.Render(fmt.Sprintf("%-12s", string(agent)))))

		barLen := 0
		if maxCap > 0 {
			barLen = int(math.Round(cap / maxCap * float64(width)))
		}
		usedLen := 0
		overflow := 0.0
		switch {
		case cap <= 0:
			// Zero-capacity agents render as an empty bar.
		case used > cap:
			usedLen = barLen
			overflow = used - cap
		default:
			// Round so a nearly full bar draws full instead of one cell short.
			usedLen = int(math.Round(used / cap * float64(barLen)))
		}

		b.WriteString(usedStyle.Render(strings.Repeat("█", usedLen)))
		b.WriteString(unusedStyle.Render(strings.Repeat("░", barLen-usedLen)))
		b.WriteString(fmt.Sprintf(" %.1f/%.1f", used, cap))
		if overflow > 0 {
			b.WriteString(overflowStyle.Render(fmt.Sprintf(" +%.1f over capacity", overflow)))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(s.Out, b.String())
	return err
}
