// Package gpio provides GPIO line reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
//
// Polarity is normalized here and nowhere else: every input is wired
// active-low with a pull-up, so Read returns true when the input is
// physically actuated (button held, switch on, phase contact closed).
package gpio

// Reader reads the logical level of GPIO input lines.
type Reader interface {
	// Read returns the logical level of the line with the given BCM offset.
	// true means physically actuated. It must return promptly; a read never
	// blocks on hardware.
	Read(line int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device used on Raspberry Pi.
const DefaultChip = "gpiochip0"
