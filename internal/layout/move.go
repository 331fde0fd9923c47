package layout

import (
	"errors"
	"fmt"
	"math"

	"timelane/internal/model"
)

var (
	ErrItemNotFound = errors.New("layout: item not found")
	ErrInvalidZoom  = errors.New("layout: zoom must be positive")

	ErrInvalidPointer = errors.New("layout: pointer position must be a number")
)

// MoveResult is the outcome of ProposeMove. When Accepted is false, Item
// holds the rejected candidate and Errors the collisions it caused.
type MoveResult struct {
	Accepted bool             `json:"accepted"`
	Item     model.Item       `json:"item"`
	Errors   []CollisionError `json:"errors,omitempty"`
}

// PointerFraction converts a pointer x position inside a container of the
// given pixel width to a fraction of that width.
func PointerFraction(pixelX, containerWidth float64) float64 {
	if containerWidth <= 0 {
		return 0
	}
	return pixelX / containerWidth
}

// DayOffsetFromFraction un-scales a pointer fraction by zoom and maps it to
// the nearest whole day offset, clamped to [0, totalDays].
func DayOffsetFromFraction(fraction float64, totalDays int, zoom float64) int {
	v := (fraction / zoom) * float64(totalDays)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= float64(totalDays):
		return totalDays
	}
	return int(math.Round(v))
}

// PixelToDayOffset is DayOffsetFromFraction for a raw pixel position.
func PixelToDayOffset(pixelX, containerWidth float64, totalDays int, zoom float64) int {
	return DayOffsetFromFraction(PointerFraction(pixelX, containerWidth), totalDays, zoom)
}

// ProposeMove computes where the item with movingID lands when dropped at
// pointerFraction and checks the result for collisions.
//
// The item keeps its inclusive duration. The candidate set (all other items
// followed by the moved one) is laid out again on a freshly built calendar;
// any collision involving the moved item rejects the move, whichever lane
// the other item ended up in. items is never
// modified: committing an accepted move is the caller's job.
func ProposeMove(items []model.Item, movingID string, pointerFraction float64, totalDays int, zoom float64) (MoveResult, error) {
	if zoom <= 0 || math.IsNaN(zoom) {
		return MoveResult{}, ErrInvalidZoom
	}
	if math.IsNaN(pointerFraction) {
		return MoveResult{}, ErrInvalidPointer
	}

	idx := -1
	for i, it := range items {
		if it.ID == movingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrItemNotFound, movingID)
	}

	current, err := BuildCalendar(items)
	if err != nil {
		return MoveResult{}, err
	}

	offset := DayOffsetFromFraction(pointerFraction, totalDays, zoom)
	newStart, err := DayOffsetToDate(offset, current.Segments)
	if err != nil {
		return MoveResult{}, err
	}

	moved := items[idx]
	duration := moved.Duration()
	moved.Start = newStart
	moved.End = newStart.AddDays(duration - 1)

	tentative := make([]model.Item, 0, len(items))
	for i, it := range items {
		if i != idx {
			tentative = append(tentative, it)
		}
	}
	tentative = append(tentative, moved)

	cal, err := BuildCalendar(tentative)
	if err != nil {
		return MoveResult{}, err
	}
	assignment, err := AssignLanes(tentative, cal.Segments)
	if err != nil {
		return MoveResult{}, err
	}

	var collisions []CollisionError
	seen := make(map[string]bool)
	for _, ce := range assignment.Errors {
		if ce.Involves(movingID) {
			collisions = append(collisions, ce)
			seen[otherID(ce, movingID)] = true
		}
	}

	// AssignLanes reports only the first clash per lane it scans, so an
	// overlap with an item in a later lane has to be checked directly.
	movedPos, err := PositionOf(moved, cal.Segments)
	if err != nil {
		return MoveResult{}, err
	}
	for _, other := range tentative[:len(tentative)-1] {
		if seen[other.ID] {
			continue
		}
		pos, err := PositionOf(other, cal.Segments)
		if err != nil {
			return MoveResult{}, err
		}
		if movedPos.Overlaps(pos) {
			collisions = append(collisions, newCollision(moved, other))
			seen[other.ID] = true
		}
	}
	if len(collisions) > 0 {
		return MoveResult{Accepted: false, Item: moved, Errors: collisions}, nil
	}
	return MoveResult{Accepted: true, Item: moved}, nil
}

func otherID(ce CollisionError, id string) string {
	if ce.Item1.ID == id {
		return ce.Item2.ID
	}
	return ce.Item1.ID
}
