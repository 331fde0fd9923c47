package layout

import (
	"fmt"
	"sort"

	"timelane/internal/model"
)

// Lane is one visual row of the timeline.
type Lane []model.Item

// CollisionError records two items whose day intervals intersect. It is
// returned as data next to a usable layout, never as a failure.
type CollisionError struct {
	Message string     `json:"message"`
	Item1   model.Item `json:"item1"`
	Item2   model.Item `json:"item2"`
}

func (e CollisionError) Error() string { return e.Message }

// Involves reports whether the item with the given id is part of the pair.
func (e CollisionError) Involves(id string) bool {
	return e.Item1.ID == id || e.Item2.ID == id
}

func newCollision(a, b model.Item) CollisionError {
	return CollisionError{
		Message: fmt.Sprintf("Items %q and %q overlap in time and cannot be placed in the same timeline.", a.Name, b.Name),
		Item1:   a,
		Item2:   b,
	}
}

// LaneAssignment is the output of AssignLanes.
type LaneAssignment struct {
	Lanes  []Lane           `json:"lanes"`
	Errors []CollisionError `json:"errors"`
}

// AssignLanes packs items into lanes so that no two items in a lane overlap.
//
// Items are visited by start date (stable for ties). Each item goes into the
// first lane holding nothing it overlaps; the first overlapping item found
// in a lane is reported as a collision and the scan moves to the next lane.
// An item no lane accepts opens a new one. The result depends only on the
// input order of items with equal start dates.
func AssignLanes(items []model.Item, segments []MonthSegment) (LaneAssignment, error) {
	positions := make([]ItemPosition, len(items))
	for i, it := range items {
		pos, err := PositionOf(it, segments)
		if err != nil {
			return LaneAssignment{}, err
		}
		positions[i] = pos
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Start.Before(items[order[b]].Start)
	})

	var laneIdx [][]int
	errs := []CollisionError{}

	for _, i := range order {
		placed := false
		for l, lane := range laneIdx {
			fits := true
			for _, j := range lane {
				if positions[i].Overlaps(positions[j]) {
					errs = append(errs, newCollision(items[i], items[j]))
					fits = false
					break
				}
			}
			if fits {
				laneIdx[l] = append(laneIdx[l], i)
				placed = true
				break
			}
		}
		if !placed {
			laneIdx = append(laneIdx, []int{i})
		}
	}

	lanes := make([]Lane, 0, len(laneIdx))
	for _, idx := range laneIdx {
		lane := make(Lane, 0, len(idx))
		for _, i := range idx {
			lane = append(lane, items[i])
		}
		lanes = append(lanes, lane)
	}

	return LaneAssignment{Lanes: lanes, Errors: errs}, nil
}

// LaneOf returns the index of the lane holding the item with id, or -1.
func (a LaneAssignment) LaneOf(id string) int {
	for l, lane := range a.Lanes {
		for _, it := range lane {
			if it.ID == id {
				return l
			}
		}
	}
	return -1
}
