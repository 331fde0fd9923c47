// Package layout is the timeline layout engine: it maps calendar dates onto
// a linear day axis, packs items into non-overlapping lanes and validates
// tentative drag moves. Everything here is a pure function over plain data.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timelane/internal/model"
)

// ErrEmptyInput is returned when a calendar is requested for an empty item
// set; there is no extent to build it from.
var ErrEmptyInput = errors.New("layout: no items to build a calendar from")

// MonthSegment is one calendar month on the day axis. Segments are
// contiguous: EndOffset of one equals StartOffset of the next.
type MonthSegment struct {
	Year        int
	Month       time.Month
	DaysInMonth int
	StartOffset int
	EndOffset   int
}

// Label renders the segment as "Jan 2024".
func (s MonthSegment) Label() string {
	return fmt.Sprintf("%s %d", s.Month.String()[:3], s.Year)
}

// Contains reports whether d falls within the segment's month.
func (s MonthSegment) Contains(d model.Date) bool {
	return d.Year == s.Year && d.Month == s.Month
}

// MarshalJSON emits the month as a 0-based index, the shape UI clients
// index their month tables with.
func (s MonthSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year        int    `json:"year"`
		Month       int    `json:"month"`
		Label       string `json:"label"`
		DaysInMonth int    `json:"days_in_month"`
		StartOffset int    `json:"start_offset"`
		EndOffset   int    `json:"end_offset"`
	}{
		Year:        s.Year,
		Month:       int(s.Month) - 1,
		Label:       s.Label(),
		DaysInMonth: s.DaysInMonth,
		StartOffset: s.StartOffset,
		EndOffset:   s.EndOffset,
	})
}

// Calendar is the day axis built for an item set.
type Calendar struct {
	Segments  []MonthSegment `json:"segments"`
	TotalDays int            `json:"total_days"`
	MinDate   model.Date     `json:"min_date"`
	MaxDate   model.Date     `json:"max_date"`
}

// StartMonth is the first day of the calendar.
func (c Calendar) StartMonth() model.Date {
	return c.MinDate.FirstOfMonth()
}

// EndMonth is the last day of the calendar.
func (c Calendar) EndMonth() model.Date {
	return c.MaxDate.LastOfMonth()
}

// MonthCount is the number of month segments.
func (c Calendar) MonthCount() int {
	return len(c.Segments)
}

// ComputeExtent returns the earliest and latest date over all item starts
// and ends.
func ComputeExtent(items []model.Item) (model.Date, model.Date, error) {
	if len(items) == 0 {
		return model.Date{}, model.Date{}, ErrEmptyInput
	}

	minDate, maxDate := items[0].Start, items[0].End
	for _, it := range items {
		for _, d := range [2]model.Date{it.Start, it.End} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}
	return minDate, maxDate, nil
}

// BuildSegments returns one segment per calendar month from minDate's month
// through maxDate's month inclusive. It returns nil if maxDate is before
// minDate.
func BuildSegments(minDate, maxDate model.Date) []MonthSegment {
	if maxDate.Before(minDate) {
		return nil
	}

	var segments []MonthSegment
	year, month := minDate.Year, minDate.Month
	offset := 0
	for year < maxDate.Year || (year == maxDate.Year && month <= maxDate.Month) {
		days := model.DaysIn(year, month)
		segments = append(segments, MonthSegment{
			Year:        year,
			Month:       month,
			DaysInMonth: days,
			StartOffset: offset,
			EndOffset:   offset + days,
		})
		offset += days

		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return segments
}

// TotalDays sums the days of all segments.
func TotalDays(segments []MonthSegment) int {
	total := 0
	for _, s := range segments {
		total += s.DaysInMonth
	}
	return total
}

// BuildCalendar computes the extent of items and the segments covering it.
func BuildCalendar(items []model.Item) (Calendar, error) {
	minDate, maxDate, err := ComputeExtent(items)
	if err != nil {
		return Calendar{}, err
	}
	segments := BuildSegments(minDate, maxDate)
	return Calendar{
		Segments:  segments,
		TotalDays: TotalDays(segments),
		MinDate:   minDate,
		MaxDate:   maxDate,
	}, nil
}

// DayOffsetToDate maps a day offset back to its calendar date. Offsets past
// the end clamp to the last day of the last segment and negative offsets
// clamp to the first day: a pointer dropped outside the timeline lands on
// its nearest edge.
func DayOffsetToDate(offset int, segments []MonthSegment) (model.Date, error) {
	if len(segments) == 0 {
		return model.Date{}, ErrEmptyInput
	}
	if offset < 0 {
		first := segments[0]
		return model.Date{Year: first.Year, Month: first.Month, Day: 1}, nil
	}

	remaining := offset
	for _, s := range segments {
		if remaining < s.DaysInMonth {
			return model.Date{Year: s.Year, Month: s.Month, Day: remaining + 1}, nil
		}
		remaining -= s.DaysInMonth
	}

	last := segments[len(segments)-1]
	return model.Date{Year: last.Year, Month: last.Month, Day: last.DaysInMonth}, nil
}
