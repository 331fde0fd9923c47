package render

import (
	"regexp"
	"strings"
	"testing"

	"timelane/internal/layout"
	"timelane/internal/model"
)

var ansiRE = regexp.MustCompile("\x1b\\[[0-9;]*m")

func plain(s string) string { return ansiRE.ReplaceAllString(s, "") }

func mk(id, name, start, end string) model.Item {
	return model.Item{ID: id, Name: name, Start: model.MustParseDate(start), End: model.MustParseDate(end)}
}

func TestLaneColor(t *testing.T) {
	tests := []struct {
		lane int
		want string
	}{
		{0, "#3B82F6"},
		{7, "#84CC16"},
		{8, "#3B82F6"},
		{10, "#10B981"},
	}
	for _, tt := range tests {
		if got := LaneColor(tt.lane); got != tt.want {
			t.Errorf("LaneColor(%d) = %s, want %s", tt.lane, got, tt.want)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 3, "abc"},
		{"ab", 4, "ab  "},
		{"abcdef", 4, "abc…"},
		{"abcdef", 1, "a"},
	}
	for _, tt := range tests {
		if got := fit(tt.in, tt.n); got != tt.want {
			t.Errorf("fit(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	items := []model.Item{
		mk("a", "Design", "2024-01-01", "2024-01-20"),
		mk("b", "Build", "2024-01-15", "2024-02-20"),
		mk("c", "Ship", "2024-03-01", "2024-03-05"),
	}
	cal, err := layout.BuildCalendar(items)
	if err != nil {
		t.Fatal(err)
	}
	asg, err := layout.AssignLanes(items, cal.Segments)
	if err != nil {
		t.Fatal(err)
	}

	out := plain(Render(cal, asg, 91))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	for _, want := range []string{"Jan 2024", "Feb 2024", "Mar 2024"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[2], "Design") || !strings.Contains(lines[2], "Ship") {
		t.Errorf("lane 0 = %q", lines[2])
	}
	if !strings.Contains(lines[3], "Build") {
		t.Errorf("lane 1 = %q", lines[3])
	}
	for i := 2; i <= 3; i++ {
		if n := len([]rune(lines[i])); n != 91 {
			t.Errorf("lane row %d is %d columns wide, want 91", i-2, n)
		}
	}
	if !strings.Contains(out, `Items "Build" and "Design" overlap in time`) {
		t.Errorf("collision message missing from output:\n%s", out)
	}
}

func TestRender_Empty(t *testing.T) {
	out := plain(Render(layout.Calendar{}, layout.LaneAssignment{}, 40))
	if !strings.Contains(out, "empty timeline") {
		t.Errorf("Render(empty) = %q", out)
	}
}
