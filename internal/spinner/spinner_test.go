package spinner

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinnerWritesAndClearsLine(t *testing.T) {
	var buf bytes.Buffer
	s := Start(&buf, "loading")
	time.Sleep(4 * frameInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "loading") {
		t.Errorf("expected output to contain the message, got %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("expected the line to be cleared, got %q", out)
	}
}

func TestSpinnerUpdateSwapsMessage(t *testing.T) {
	var buf bytes.Buffer
	s := Start(&buf, "checking 0/2")
	time.Sleep(4 * frameInterval)
	s.Update("checking 2/2")
	time.Sleep(4 * frameInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "checking 0/2") {
		t.Errorf("expected initial message in output, got %q", out)
	}
	if !strings.Contains(out, "checking 2/2") {
		t.Errorf("expected updated message in output, got %q", out)
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := Start(&buf, "working")
	s.Stop()
	s.Stop()
}
