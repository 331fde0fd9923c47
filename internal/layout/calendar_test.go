package layout_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"timelane/internal/layout"
	"timelane/internal/model"
)

func item(id, start, end string) model.Item {
	return model.Item{
		ID:    id,
		Name:  strings.ToUpper(id),
		Start: model.MustParseDate(start),
		End:   model.MustParseDate(end),
	}
}

func TestBuildCalendar_NonLeapQuarter(t *testing.T) {
	items := []model.Item{
		item("a", "2023-01-15", "2023-02-01"),
		item("b", "2023-02-10", "2023-03-10"),
	}

	cal, err := layout.BuildCalendar(items)
	if err != nil {
		t.Fatalf("BuildCalendar() error = %v", err)
	}

	want := []layout.MonthSegment{
		{Year: 2023, Month: time.January, DaysInMonth: 31, StartOffset: 0, EndOffset: 31},
		{Year: 2023, Month: time.February, DaysInMonth: 28, StartOffset: 31, EndOffset: 59},
		{Year: 2023, Month: time.March, DaysInMonth: 31, StartOffset: 59, EndOffset: 90},
	}
	if !reflect.DeepEqual(cal.Segments, want) {
		t.Errorf("Segments = %+v, want %+v", cal.Segments, want)
	}
	if cal.TotalDays != 90 {
		t.Errorf("TotalDays = %d, want 90", cal.TotalDays)
	}
	if cal.MinDate != model.MustParseDate("2023-01-15") || cal.MaxDate != model.MustParseDate("2023-03-10") {
		t.Errorf("extent = %s..%s", cal.MinDate, cal.MaxDate)
	}
	if cal.StartMonth() != model.MustParseDate("2023-01-01") || cal.EndMonth() != model.MustParseDate("2023-03-31") {
		t.Errorf("month span = %s..%s", cal.StartMonth(), cal.EndMonth())
	}
	if cal.MonthCount() != 3 {
		t.Errorf("MonthCount() = %d, want 3", cal.MonthCount())
	}
}

func TestBuildSegments_LeapYearAndYearBoundary(t *testing.T) {
	segs := layout.BuildSegments(model.MustParseDate("2023-12-20"), model.MustParseDate("2024-02-03"))

	wantDays := []int{31, 31, 29}
	if len(segs) != len(wantDays) {
		t.Fatalf("len(segments) = %d, want %d", len(segs), len(wantDays))
	}
	for i, s := range segs {
		if s.DaysInMonth != wantDays[i] {
			t.Errorf("segment %d (%s) days = %d, want %d", i, s.Label(), s.DaysInMonth, wantDays[i])
		}
		if i > 0 && s.StartOffset != segs[i-1].EndOffset {
			t.Errorf("segment %d not contiguous: start %d, previous end %d", i, s.StartOffset, segs[i-1].EndOffset)
		}
	}
	if segs[0].Year != 2023 || segs[1].Year != 2024 || segs[1].Month != time.January {
		t.Errorf("year rollover wrong: %+v", segs)
	}
	if got := layout.TotalDays(segs); got != 91 {
		t.Errorf("TotalDays() = %d, want 91", got)
	}
}

func TestBuildSegments_ReversedRange(t *testing.T) {
	if segs := layout.BuildSegments(model.MustParseDate("2024-03-01"), model.MustParseDate("2024-01-01")); segs != nil {
		t.Errorf("BuildSegments() = %+v, want nil", segs)
	}
}

func TestBuildCalendar_Empty(t *testing.T) {
	_, err := layout.BuildCalendar(nil)
	if !errors.Is(err, layout.ErrEmptyInput) {
		t.Fatalf("BuildCalendar(nil) error = %v, want ErrEmptyInput", err)
	}
	if _, _, err := layout.ComputeExtent([]model.Item{}); !errors.Is(err, layout.ErrEmptyInput) {
		t.Fatalf("ComputeExtent(empty) error = %v, want ErrEmptyInput", err)
	}
}

func TestComputeExtent_UsesEndDates(t *testing.T) {
	items := []model.Item{
		item("a", "2024-03-01", "2024-06-30"),
		item("b", "2024-02-10", "2024-02-11"),
		item("c", "2024-04-01", "2024-04-02"),
	}
	minDate, maxDate, err := layout.ComputeExtent(items)
	if err != nil {
		t.Fatal(err)
	}
	if minDate != model.MustParseDate("2024-02-10") || maxDate != model.MustParseDate("2024-06-30") {
		t.Errorf("ComputeExtent() = %s..%s", minDate, maxDate)
	}
}

func TestDayOffsetToDate(t *testing.T) {
	segs := layout.BuildSegments(model.MustParseDate("2024-01-01"), model.MustParseDate("2024-02-29"))

	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"first day", 0, "2024-01-01"},
		{"last day of first month", 30, "2024-01-31"},
		{"first day of second month", 31, "2024-02-01"},
		{"leap day", 59, "2024-02-29"},
		{"past the end clamps", 60, "2024-02-29"},
		{"far past the end clamps", 1000, "2024-02-29"},
		{"negative clamps to start", -4, "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := layout.DayOffsetToDate(tt.offset, segs)
			if err != nil {
				t.Fatalf("DayOffsetToDate() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("DayOffsetToDate(%d) = %s, want %s", tt.offset, got, tt.want)
			}
		})
	}

	if _, err := layout.DayOffsetToDate(3, nil); !errors.Is(err, layout.ErrEmptyInput) {
		t.Errorf("DayOffsetToDate(nil segments) error = %v, want ErrEmptyInput", err)
	}
}

func TestDayOffsetRoundTrip(t *testing.T) {
	segs := layout.BuildSegments(model.MustParseDate("2023-11-01"), model.MustParseDate("2024-03-31"))
	for off := 0; off < layout.TotalDays(segs); off++ {
		d, err := layout.DayOffsetToDate(off, segs)
		if err != nil {
			t.Fatal(err)
		}
		back, ok := layout.OffsetOf(d, segs)
		if !ok || back != off {
			t.Fatalf("offset %d -> %s -> %d (ok=%v)", off, d, back, ok)
		}
	}
}

func TestMonthSegmentJSON(t *testing.T) {
	seg := layout.MonthSegment{Year: 2024, Month: time.February, DaysInMonth: 29, StartOffset: 31, EndOffset: 60}
	data, err := json.Marshal(seg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"year":2024,"month":1,"label":"Feb 2024","days_in_month":29,"start_offset":31,"end_offset":60}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
