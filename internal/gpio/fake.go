package gpio

import (
	"fmt"
	"sync"
)

// FakeReader is a test double whose line levels are set directly by tests.
// Levels are logical: true means actuated, exactly as RealReader reports
// after polarity inversion.
type FakeReader struct {
	mu sync.Mutex

	levels map[int]bool
	errs   map[int]error

	// Closed tracks if Close was called.
	Closed bool

	// Reads counts calls to Read, per line.
	Reads map[int]int
}

// NewFakeReader creates a FakeReader with every line released.
func NewFakeReader(pins []int) *FakeReader {
	f := &FakeReader{
		levels: make(map[int]bool, len(pins)),
		errs:   make(map[int]error),
		Reads:  make(map[int]int),
	}
	for _, pin := range pins {
		f.levels[pin] = false
	}
	return f
}

// Set drives the logical level of a line.
func (f *FakeReader) Set(line int, actuated bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[line] = actuated
}

// SetError makes Read fail for the given line until cleared with a nil err.
func (f *FakeReader) SetError(line int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, line)
		return
	}
	f.errs[line] = err
}

// Read returns the current level of the line.
func (f *FakeReader) Read(line int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads[line]++
	if err, ok := f.errs[line]; ok {
		return false, err
	}
	level, ok := f.levels[line]
	if !ok {
		return false, fmt.Errorf("line %d not configured", line)
	}
	return level, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
