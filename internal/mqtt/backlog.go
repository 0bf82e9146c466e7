package mqtt

// pendingMsg stores a serialized MQTT message for replay after reconnection.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO holding messages produced while the
// broker connection is down. On overflow the oldest message is dropped.
// Not safe for concurrent use — the publisher synchronizes.
type backlog struct {
	buf      []pendingMsg
	capacity int
	head     int // next write position
	count    int
	dropped  int // messages discarded since the last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{
		buf:      make([]pendingMsg, capacity),
		capacity: capacity,
	}
}

func (b *backlog) push(msg pendingMsg) {
	if b.count == b.capacity {
		// head already points at the oldest entry
		b.buf[b.head] = msg
		b.head = (b.head + 1) % b.capacity
		b.dropped++
		return
	}
	b.buf[b.head] = msg
	b.head = (b.head + 1) % b.capacity
	b.count++
}

// drainAll removes and returns every buffered message, oldest first, along
// with the number of messages dropped while buffering.
func (b *backlog) drainAll() ([]pendingMsg, int) {
	dropped := b.dropped
	b.dropped = 0

	if b.count == 0 {
		return nil, dropped
	}

	result := make([]pendingMsg, b.count)
	start := (b.head - b.count + b.capacity) % b.capacity
	for i := 0; i < b.count; i++ {
		result[i] = b.buf[(start+i)%b.capacity]
	}

	b.count = 0
	b.head = 0
	return result, dropped
}

func (b *backlog) len() int {
	return b.count
}
