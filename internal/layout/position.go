package layout

import (
	"fmt"

	"timelane/internal/model"
)

// DateOutOfRangeError reports a date that no segment of the calendar covers.
type DateOutOfRangeError struct {
	ItemID string
	Date   model.Date
	First  model.Date
	Last   model.Date
}

func (e *DateOutOfRangeError) Error() string {
	if e.First.IsZero() {
		return fmt.Sprintf("layout: item %q: date %s is outside an empty calendar", e.ItemID, e.Date)
	}
	return fmt.Sprintf("layout: item %q: date %s is outside the calendar %s..%s", e.ItemID, e.Date, e.First, e.Last)
}

// ItemPosition is an item's inclusive interval on the day axis.
type ItemPosition struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
	Duration    int `json:"duration"`
}

// Overlaps reports whether two positions share at least one day. Both ends
// are inclusive, so intervals meeting on the same day overlap.
func (p ItemPosition) Overlaps(o ItemPosition) bool {
	return !(p.EndOffset < o.StartOffset || o.EndOffset < p.StartOffset)
}

// OffsetOf returns the day offset of d within segments.
func OffsetOf(d model.Date, segments []MonthSegment) (int, bool) {
	for _, s := range segments {
		if s.Contains(d) {
			return s.StartOffset + d.Day - 1, true
		}
	}
	return 0, false
}

// PositionOf maps an item's dates onto the day axis described by segments.
func PositionOf(item model.Item, segments []MonthSegment) (ItemPosition, error) {
	if item.End.Before(item.Start) {
		return ItemPosition{}, fmt.Errorf("%w: %s: end %s is before start %s", model.ErrInvalidItem, item.ID, item.End, item.Start)
	}

	start, ok := OffsetOf(item.Start, segments)
	if !ok {
		return ItemPosition{}, outOfRange(item.ID, item.Start, segments)
	}
	end, ok := OffsetOf(item.End, segments)
	if !ok {
		return ItemPosition{}, outOfRange(item.ID, item.End, segments)
	}

	return ItemPosition{
		StartOffset: start,
		EndOffset:   end,
		Duration:    end - start + 1,
	}, nil
}

func outOfRange(id string, d model.Date, segments []MonthSegment) error {
	e := &DateOutOfRangeError{ItemID: id, Date: d}
	if len(segments) > 0 {
		first, last := segments[0], segments[len(segments)-1]
		e.First = model.Date{Year: first.Year, Month: first.Month, Day: 1}
		e.Last = model.Date{Year: last.Year, Month: last.Month, Day: last.DaysInMonth}
	}
	return e
}
