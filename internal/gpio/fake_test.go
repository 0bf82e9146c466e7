package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderDefaultsReleased(t *testing.T) {
	f := NewFakeReader([]int{2, 18})

	for _, pin := range []int{2, 18} {
		level, err := f.Read(pin)
		if err != nil {
			t.Fatalf("read pin %d: %v", pin, err)
		}
		if level {
			t.Errorf("pin %d: expected released by default", pin)
		}
	}
}

func TestFakeReaderSet(t *testing.T) {
	f := NewFakeReader([]int{2})

	f.Set(2, true)
	level, err := f.Read(2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !level {
		t.Error("expected actuated after Set")
	}

	f.Set(2, false)
	level, _ = f.Read(2)
	if level {
		t.Error("expected released after Set(false)")
	}
}

func TestFakeReaderUnconfiguredLine(t *testing.T) {
	f := NewFakeReader([]int{2})

	if _, err := f.Read(99); err == nil {
		t.Error("expected error for unconfigured line")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]int{2})
	boom := errors.New("hardware fault")

	f.SetError(2, boom)
	if _, err := f.Read(2); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}

	f.SetError(2, nil)
	if _, err := f.Read(2); err != nil {
		t.Errorf("expected error cleared, got %v", err)
	}
}

func TestFakeReaderCountsReads(t *testing.T) {
	f := NewFakeReader([]int{2})

	f.Read(2)
	f.Read(2)
	if f.Reads[2] != 2 {
		t.Errorf("expected 2 reads, got %d", f.Reads[2])
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader(nil)
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !f.Closed {
		t.Error("Closed not set")
	}
}
