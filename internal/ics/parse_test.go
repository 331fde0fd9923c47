package ics

import (
	"reflect"
	"strings"
	"testing"

	"timelane/internal/model"
)

func icsBody(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//timelane//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR")
	return []byte(strings.Join(all, "\r\n") + "\r\n")
}

func TestParseItems(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:launch",
		"SUMMARY:Launch week",
		"DTSTART;VALUE=DATE:20240101",
		"DTEND;VALUE=DATE:20240108",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:review",
		"SUMMARY:Design review",
		"DTSTART:20240110T090000Z",
		"DTEND:20240110T100000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:offsite",
		"DTSTART;VALUE=DATE:20240215",
		"RRULE:FREQ=YEARLY",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:No uid",
		"DTSTART;VALUE=DATE:20240301",
		"END:VEVENT",
	)

	got, err := ParseItems(Source{ID: "team", URL: "https://example.com/team.ics"}, body)
	if err != nil {
		t.Fatalf("ParseItems() error = %v", err)
	}

	want := []model.Item{
		{ID: "team/launch", Name: "Launch week", Start: model.MustParseDate("2024-01-01"), End: model.MustParseDate("2024-01-07"), Source: "team"},
		{ID: "team/review", Name: "Design review", Start: model.MustParseDate("2024-01-10"), End: model.MustParseDate("2024-01-10"), Source: "team"},
		{ID: "team/offsite", Name: "offsite", Start: model.MustParseDate("2024-02-15"), End: model.MustParseDate("2024-02-15"), Source: "team"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseItems() = %+v\nwant %+v", got, want)
	}
}

func TestParseItems_NoSourceID(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:one",
		"SUMMARY:One",
		"DTSTART;VALUE=DATE:20240501",
		"DTEND;VALUE=DATE:20240502",
		"END:VEVENT",
	)
	got, err := ParseItems(Source{}, body)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "one" || got[0].Start != got[0].End {
		t.Errorf("ParseItems() = %+v", got)
	}
}

func TestParseItems_OverriddenInstance(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:standup",
		"SUMMARY:Standup",
		"DTSTART;VALUE=DATE:20240101",
		"RRULE:FREQ=WEEKLY",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:standup",
		"SUMMARY:Standup (moved)",
		"RECURRENCE-ID;VALUE=DATE:20240108",
		"DTSTART;VALUE=DATE:20240109",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:standup",
		"SUMMARY:Standup (late)",
		"RECURRENCE-ID:20240115T090000Z",
		"DTSTART:20240115T110000Z",
		"END:VEVENT",
	)

	got, err := ParseItems(Source{ID: "team"}, body)
	if err != nil {
		t.Fatalf("ParseItems() error = %v", err)
	}
	var ids []string
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	want := []string{"team/standup", "team/standup@20240108", "team/standup@20240115"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if got[1].Start != model.MustParseDate("2024-01-09") {
		t.Errorf("override start = %s, want 2024-01-09", got[1].Start)
	}
}

func TestParseItems_Empty(t *testing.T) {
	if _, err := ParseItems(Source{ID: "x"}, nil); err == nil {
		t.Fatal("ParseItems(nil) expected error")
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/private/abc.ics?token=secret", "https://example.com/...(redacted)"},
		{"not a url", "ics://...(redacted)"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
