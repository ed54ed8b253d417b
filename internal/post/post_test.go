package post

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", Info, false},
		{"info", Info, false},
		{"WARN", Warn, false},
		{"warning", Warn, false},
		{"error", Error, false},
		{"verbose", Info, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogger(&buf, Error)

	Infof(p, "resaving %s", "out.jucer")
	Errorf(p, "CMake was not found at %s", "C:\\CMake\\bin\\cmake.exe")

	out := buf.String()
	if strings.Contains(out, "resaving") {
		t.Errorf("info message should be filtered, got %q", out)
	}
	if !strings.Contains(out, "CMake was not found") {
		t.Errorf("error message missing, got %q", out)
	}
}

func TestLoggerWritesInfo(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogger(&buf, Info)
	p.Post(Info, "Using .jucer file: x\n")
	Warnf(p, "Invalid export type")
	if !strings.Contains(buf.String(), "Using .jucer file: x") {
		t.Errorf("info message missing, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Invalid export type") {
		t.Errorf("warn message missing, got %q", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	Infof(&r, "a %d", 1)
	Errorf(&r, "b")
	if got := len(r.Messages()); got != 2 {
		t.Fatalf("len(Messages) = %d, want 2", got)
	}
	if !r.Contains(Info, "a 1") {
		t.Error("Contains(Info, a 1) = false")
	}
	if r.Contains(Info, "b") {
		t.Error("Contains(Info, b) = true, want false (posted as error)")
	}
	if !r.Contains(Error, "b") {
		t.Error("Contains(Error, b) = false")
	}
}
