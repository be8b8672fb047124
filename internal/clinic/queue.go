package clinic

// RoutineQueue holds routine tokens in arrival order. It is a fixed-capacity
// ring buffer: Enqueue and Dequeue are O(1), RemoveByID drains and rebuilds.
type RoutineQueue struct {
	buf  []Token
	head int
	tail int
	size int
}

func NewRoutineQueue(capacity int) *RoutineQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &RoutineQueue{buf: make([]Token, capacity)}
}

// Enqueue appends a token at the tail. Returns false without mutating when
// the queue is at capacity.
func (q *RoutineQueue) Enqueue(t Token) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[q.tail] = t
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	return true
}

// Dequeue removes and returns the oldest token.
func (q *RoutineQueue) Dequeue() (Token, bool) {
	if q.size == 0 {
		return Token{}, false
	}
	t := q.buf[q.head]
	q.buf[q.head] = Token{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return t, true
}

func (q *RoutineQueue) Peek() (Token, bool) {
	if q.size == 0 {
		return Token{}, false
	}
	return q.buf[q.head], true
}

func (q *RoutineQueue) Len() int { return q.size }

func (q *RoutineQueue) Cap() int { return len(q.buf) }

// RemoveByID takes the token with the given id out of the queue, preserving
// the relative order of everything else. O(n): the queue is drained once and
// non-matching tokens are re-enqueued.
func (q *RoutineQueue) RemoveByID(id int) (Token, bool) {
	var removed Token
	found := false
	for n := q.size; n > 0; n-- {
		t, _ := q.Dequeue()
		if !found && t.ID == id {
			removed = t
			found = true
			continue
		}
		q.Enqueue(t)
	}
	return removed, found
}
