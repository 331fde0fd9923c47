package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetFormat("json"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		_ = SetFormat("text")
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoWritesFields(t *testing.T) {
	buf := captureJSON(t)
	SetLevel(LevelInfo)

	Info("layout built", "lanes", 3, "items", 7)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if line["msg"] != "layout built" || line["level"] != "info" {
		t.Errorf("line = %v", line)
	}
	if line["lanes"] != float64(3) || line["items"] != float64(7) {
		t.Errorf("fields missing: %v", line)
	}
}

func TestErrorAttachesErr(t *testing.T) {
	buf := captureJSON(t)

	Error("move rejected", errors.New("boom"), "id", "a")

	if !strings.Contains(buf.String(), `"error":"boom"`) || !strings.Contains(buf.String(), `"id":"a"`) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t)

	SetLevel(LevelError)
	Info("hidden")
	Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at error level, got %q", buf.String())
	}

	SetLevel(LevelDebug)
	Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug line missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestFields(t *testing.T) {
	got := fields("a", 1, 2, "skipped", "b", "x", "dangling")
	want := map[string]any{"a": 1, "b": "x"}
	if !reflect.DeepEqual(map[string]any(got), want) {
		t.Errorf("fields() = %v, want %v", got, want)
	}
}

func TestSetFormatRejectsUnknown(t *testing.T) {
	if err := SetFormat("xml"); err == nil {
		t.Error("SetFormat(xml) expected error")
	}
}
