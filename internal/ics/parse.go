package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "timelane/internal/log"
	"timelane/internal/model"
)

// ParseItems converts the VEVENTs of an ICS payload into timeline items.
//
//   - All-day DTEND is exclusive, so the item ends the day before it.
//   - Timed events keep the calendar dates written in the feed; sub-day
//     times and zones are dropped.
//   - A missing DTEND makes a single-day item.
//   - RRULEs are not expanded; only the first occurrence is imported.
//
// Events that cannot be converted are logged and skipped.
func ParseItems(src Source, body []byte) ([]model.Item, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	items := make([]model.Item, 0)
	for _, ve := range cal.Events() {
		it, err := itemFromEvent(src, ve)
		if err != nil {
			appLog.Error("ics vevent skipped", err, "id", src.ID)
			continue
		}
		items = append(items, it)
	}

	appLog.Info("ics parse completed", "id", src.ID, "item_count", len(items))
	return items, nil
}

func itemFromEvent(src Source, ve *ical.VEvent) (model.Item, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || strings.TrimSpace(uidProp.Value) == "" {
		return model.Item{}, errors.New("missing UID")
	}
	uid := strings.TrimSpace(uidProp.Value)

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return model.Item{}, fmt.Errorf("%s: missing DTSTART", uid)
	}
	start, allDay, err := parseDateValue(startProp)
	if err != nil {
		return model.Item{}, fmt.Errorf("%s: DTSTART: %w", uid, err)
	}

	end := start
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, _, err = parseDateValue(endProp)
		if err != nil {
			return model.Item{}, fmt.Errorf("%s: DTEND: %w", uid, err)
		}
		if allDay {
			end = end.AddDays(-1)
		}
		if end.Before(start) {
			end = start
		}
	}

	if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
		appLog.Debug("ics recurrence not expanded", "id", src.ID, "uid", uid)
	}

	name := uid
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
		name = strings.TrimSpace(p.Value)
	}

	// An overridden instance repeats its master's UID; the original
	// occurrence date tells them apart.
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		rid, _, err := parseDateValue(ridProp)
		if err != nil {
			return model.Item{}, fmt.Errorf("%s: RECURRENCE-ID: %w", uid, err)
		}
		uid += "@" + rid.Time().Format("20060102")
	}

	id := uid
	if src.ID != "" {
		id = src.ID + "/" + uid
	}

	return model.Item{
		ID:     id,
		Name:   name,
		Start:  start,
		End:    end,
		Source: src.ID,
	}, nil
}

// parseDateValue extracts the calendar date of a DTSTART/DTEND property and
// reports whether it is a date-only (all-day) value.
func parseDateValue(p *ical.IANAProperty) (model.Date, bool, error) {
	val := strings.TrimSpace(p.Value)
	allDay := !strings.Contains(val, "T")
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}

	if len(val) < 8 {
		return model.Date{}, false, fmt.Errorf("malformed date %q", val)
	}
	digits := val[:8]
	d, err := model.ParseDate(digits[:4] + "-" + digits[4:6] + "-" + digits[6:8])
	if err != nil {
		return model.Date{}, false, err
	}
	return d, allDay, nil
}
