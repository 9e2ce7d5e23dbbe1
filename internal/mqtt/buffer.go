package mqtt

import "log"

// bufferedMsg is a serialized message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds the newest messages while the broker is unreachable.
// When full, the oldest message is dropped.
// Not safe for concurrent use; caller must synchronize.
type ringBuffer struct {
	slots   []bufferedMsg
	start   int // index of the oldest message
	count   int
	dropped int // dropped since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{slots: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	n := len(r.slots)
	if r.count < n {
		r.slots[(r.start+r.count)%n] = msg
		r.count++
		return
	}
	if r.dropped == 0 {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", n)
	}
	r.dropped++
	r.slots[r.start] = msg
	r.start = (r.start + 1) % n
}

// drainAll returns buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	n := len(r.slots)
	out := make([]bufferedMsg, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.slots[(r.start+i)%n])
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d buffered messages were dropped while disconnected", r.dropped)
	}
	r.start, r.count, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
