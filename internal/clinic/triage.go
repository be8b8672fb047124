package clinic

import "container/heap"

// triageEntry keys a token by (severity, seq): the lower severity wins, ties
// go to the earlier insertion. seq is strictly increasing and never reused.
type triageEntry struct {
	severity int
	seq      uint64
	token    Token
}

type triageEntries []triageEntry

func (h triageEntries) Len() int { return len(h) }

func (h triageEntries) Less(i, j int) bool {
	if h[i].severity != h[j].severity {
		return h[i].severity < h[j].severity
	}
	return h[i].seq < h[j].seq
}

func (h triageEntries) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *triageEntries) Push(x any) { *h = append(*h, x.(triageEntry)) }

func (h *triageEntries) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// TriageQueue orders emergency tokens by severity, lowest value first.
type TriageQueue struct {
	entries triageEntries
	seq     uint64
}

func NewTriageQueue() *TriageQueue { return &TriageQueue{} }

// Insert adds a token with the given severity. O(log n).
func (t *TriageQueue) Insert(tok Token, severity int) {
	t.seq++
	heap.Push(&t.entries, triageEntry{severity: severity, seq: t.seq, token: tok})
}

// ExtractMin removes the most urgent token. The stored severity is returned
// alongside it so callers can restore the token at the same priority later.
func (t *TriageQueue) ExtractMin() (Token, int, bool) {
	if t.entries.Len() == 0 {
		return Token{}, 0, false
	}
	e := heap.Pop(&t.entries).(triageEntry)
	return e.token, e.severity, true
}

func (t *TriageQueue) Peek() (Token, bool) {
	if t.entries.Len() == 0 {
		return Token{}, false
	}
	return t.entries[0].token, true
}

func (t *TriageQueue) Len() int { return t.entries.Len() }

// RemoveByID drops the token with the given id by popping every entry,
// keeping the rest and re-heapifying. O(n log n), acceptable for triage
// volumes.
func (t *TriageQueue) RemoveByID(id int) bool {
	kept := make(triageEntries, 0, t.entries.Len())
	found := false
	for t.entries.Len() > 0 {
		e := heap.Pop(&t.entries).(triageEntry)
		if !found && e.token.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	heap.Init(&t.entries)
	return found
}
