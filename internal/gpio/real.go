//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO lines from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewRealReader opens the chip and requests every configured line as an
// input with a pull-up, matching the external wiring (inputs short the line
// to ground when actuated).
func NewRealReader(chipName string, pins []int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	r := &RealReader{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line, len(pins)),
	}

	for _, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request line %d: %w", pin, err)
		}
		r.lines[pin] = line
	}

	return r, nil
}

// Read returns the logical level of the given line.
// Inverts raw: raw 0 (pulled to ground) = actuated, raw 1 = released.
func (r *RealReader) Read(line int) (bool, error) {
	l, ok := r.lines[line]
	if !ok {
		return false, fmt.Errorf("line %d not requested", line)
	}
	raw, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read line %d: %w", line, err)
	}
	return raw == 0, nil
}

// Close releases all requested lines and the chip.
func (r *RealReader) Close() error {
	var errs []error
	for pin, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", pin, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
