package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgress_Render(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Exporting")

	progress.Start(200)
	progress.Update(50)
	progress.Finish()

	out := buf.String()
	for _, want := range []string{"Exporting: [", "25.0% (50/200)", "100.0% (200/200)", "records/s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end the line")
	}
}

func TestSimpleProgress_ClampsOvershoot(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "")

	progress.Start(10)
	progress.Update(15)

	if !strings.Contains(buf.String(), "Progress: [") {
		t.Errorf("default label missing in %q", buf.String())
	}
	if !strings.Contains(buf.String(), "(10/10)") {
		t.Errorf("overshoot not clamped: %q", buf.String())
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Exporting")

	progress.Start(0)
	progress.Update(3)
	progress.Finish()

	if got := buf.String(); got != "\n" {
		t.Errorf("output = %q, want a bare newline", got)
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Exporting")

	progress.Start(100)
	progress.Error(errors.New("disk full"))

	if !strings.Contains(buf.String(), "Error: disk full") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSimpleProgress_Concurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Exporting")
	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Update(int64(start*100 + j))
			}
		}(i)
	}
	wg.Wait()
	progress.Finish()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestNewProgressReporter_NilWriter(t *testing.T) {
	progress := NewProgressReporter(nil, "Exporting")
	if progress.(*SimpleProgress).writer == nil {
		t.Fatal("nil writer not defaulted")
	}
}
