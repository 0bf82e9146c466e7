package logic

// QuadratureDecoder converts the two debounced phase levels of a rotary
// encoder into direction-qualified steps and a running position counter.
//
// The decoder walks the four Gray-code phase states formed from (A,B). Only
// moves between adjacent states in the cycle 00→01→11→10→00 count: forward
// is clockwise (+1), reverse is counter-clockwise (-1). Any other observed
// transition is a skip — almost always a sampling race rather than two real
// detents — and is discarded without touching the position.
type QuadratureDecoder struct {
	phase    uint8 // 2-bit state: A<<1 | B
	position int
}

// quadDelta maps (previous<<2 | next) phase pairs to a position delta.
// Non-adjacent pairs map to 0.
var quadDelta = [16]int{
	0b0001: +1, // 00 -> 01
	0b0111: +1, // 01 -> 11
	0b1110: +1, // 11 -> 10
	0b1000: +1, // 10 -> 00
	0b0100: -1, // 01 -> 00
	0b1101: -1, // 11 -> 01
	0b1011: -1, // 10 -> 11
	0b0010: -1, // 00 -> 10
}

// NewQuadratureDecoder creates a decoder seeded with the phase levels read
// from the encoder lines at startup.
func NewQuadratureDecoder(a, b Level) *QuadratureDecoder {
	return &QuadratureDecoder{phase: phaseOf(a, b)}
}

func phaseOf(a, b Level) uint8 {
	var p uint8
	if a == Asserted {
		p |= 0b10
	}
	if b == Asserted {
		p |= 0b01
	}
	return p
}

// Sample feeds the current debounced phase levels. It returns the position
// delta applied: +1 for a clockwise step, -1 for counter-clockwise, 0 when
// the phase is unchanged or the transition was a skip. At most one step is
// ever applied per sample.
func (q *QuadratureDecoder) Sample(a, b Level) int {
	next := phaseOf(a, b)
	delta := quadDelta[q.phase<<2|next]
	q.phase = next
	q.position += delta
	return delta
}

// Position returns the running step counter.
func (q *QuadratureDecoder) Position() int {
	return q.position
}

// Reset zeroes the position counter. The phase state is kept so the next
// physical transition still decodes correctly.
func (q *QuadratureDecoder) Reset() {
	q.position = 0
}
