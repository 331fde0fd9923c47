// Package render draws a laid-out timeline for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"timelane/internal/layout"
)

// LaneColors is the palette lanes cycle through, shared with the web API.
var LaneColors = []string{
	"#3B82F6",
	"#EF4444",
	"#10B981",
	"#F59E0B",
	"#8B5CF6",
	"#EC4899",
	"#06B6D4",
	"#84CC16",
}

// LaneColor returns the color of lane i.
func LaneColor(i int) string {
	if i < 0 {
		i = -i
	}
	return LaneColors[i%len(LaneColors)]
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	gridStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

const defaultWidth = 80

// Render draws the month header, one row per lane and the collision list
// below them. width is the number of columns the whole timeline spans.
func Render(cal layout.Calendar, asg layout.LaneAssignment, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	if cal.TotalDays <= 0 || len(cal.Segments) == 0 {
		return mutedStyle.Render("(empty timeline)") + "\n"
	}

	var b strings.Builder
	b.WriteString(monthHeader(cal, width))
	b.WriteByte('\n')
	b.WriteString(gridStyle.Render(strings.Repeat("─", width)))
	b.WriteByte('\n')

	for i, lane := range asg.Lanes {
		b.WriteString(laneRow(cal, lane, LaneColor(i), width))
		b.WriteByte('\n')
	}

	if len(asg.Errors) > 0 {
		b.WriteByte('\n')
		for _, ce := range asg.Errors {
			b.WriteString(errorStyle.Render("✖ " + ce.Message))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// column maps a day offset to a column in [0, width).
func column(offset, totalDays, width int) int {
	c := offset * width / totalDays
	if c >= width {
		c = width - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func monthHeader(cal layout.Calendar, width int) string {
	line := []rune(strings.Repeat(" ", width))
	for _, seg := range cal.Segments {
		start := column(seg.StartOffset, cal.TotalDays, width)
		end := column(seg.EndOffset, cal.TotalDays, width)
		if seg.EndOffset >= cal.TotalDays {
			end = width
		}
		label := []rune(seg.Label())
		if len(label) > end-start {
			label = []rune(seg.Month.String()[:3])
		}
		if len(label) > end-start {
			continue
		}
		copy(line[start:], label)
	}
	return headerStyle.Render(string(line))
}

func laneRow(cal layout.Calendar, lane layout.Lane, color string, width int) string {
	bar := lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("#FFFFFF"))

	var b strings.Builder
	cursor := 0
	for _, it := range lane {
		pos, err := layout.PositionOf(it, cal.Segments)
		if err != nil {
			continue
		}
		start := column(pos.StartOffset, cal.TotalDays, width)
		end := column(pos.EndOffset, cal.TotalDays, width)
		if start < cursor {
			start = cursor
		}
		if start >= width {
			break
		}
		if end < start {
			end = start
		}
		b.WriteString(strings.Repeat(" ", start-cursor))
		b.WriteString(bar.Render(fit(it.Name, end-start+1)))
		cursor = end + 1
	}
	if cursor < width {
		b.WriteString(strings.Repeat(" ", width-cursor))
	}
	return b.String()
}

// fit pads or truncates s to exactly n runes.
func fit(s string, n int) string {
	r := []rune(s)
	switch {
	case len(r) == n:
		return s
	case len(r) < n:
		return s + strings.Repeat(" ", n-len(r))
	case n == 1:
		return string(r[:1])
	default:
		return string(r[:n-1]) + "…"
	}
}

// Summary lists every item with its dates and lane, one per line.
func Summary(asg layout.LaneAssignment) string {
	var b strings.Builder
	for i, lane := range asg.Lanes {
		for _, it := range lane {
			fmt.Fprintf(&b, "%-3d %s %s → %s  (%s)\n",
				i, fit(it.Name, 24), it.Start.FormatDisplay(), it.End.FormatDisplay(), it.ID)
		}
	}
	return b.String()
}
