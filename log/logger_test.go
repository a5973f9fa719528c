package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	specs := []struct {
		in       string
		expLevel Level
		expErr   bool
	}{
		{"debug", Debug, false},
		{" INFO ", Info, false},
		{"notice", Notice, false},
		{"Warning", Warning, false},
		{"error", Error, false},
		{"verbose", Error, true},
	}

	for index, spec := range specs {
		level, err := ParseLevel(spec.in)
		if spec.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error for %q", index, spec.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if level != spec.expLevel {
			t.Fatalf("[spec %d] expected level %s; got %s", index, spec.expLevel, level)
		}
	}
}

func TestSinkAndLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)

	SetLevel(Warning)
	defer SetLevel(Notice)

	logger := New("test")
	logger.Info("filtered message")
	logger.Warningf("kept %s", "message")

	out := buf.String()
	if strings.Contains(out, "filtered message") {
		t.Fatalf("expected info message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "kept message") {
		t.Fatalf("expected warning message to be logged; got %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Fatalf("expected output to contain the module name; got %q", out)
	}
}
