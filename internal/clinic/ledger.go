package clinic

// SlotLedger tracks one doctor's slots. Slots are kept most-recently-added
// first and that order is the traversal order for free-slot searches; this
// is a deliberate policy, not an implementation accident.
type SlotLedger struct {
	slots []*Slot // most recently added first
	byID  map[int]*Slot
}

func NewSlotLedger() *SlotLedger {
	return &SlotLedger{byID: make(map[int]*Slot)}
}

// AddSlot inserts a new FREE slot at the front of the traversal order.
// Returns false when the id is already present.
func (l *SlotLedger) AddSlot(id int, start, end string) bool {
	if _, ok := l.byID[id]; ok {
		return false
	}
	s := &Slot{ID: id, Start: start, End: end, Status: SlotFree}
	l.slots = append([]*Slot{s}, l.slots...)
	l.byID[id] = s
	return true
}

// BookNextFree flips the first FREE slot in traversal order to BOOKED and
// returns it, or nil when every slot is taken.
func (l *SlotLedger) BookNextFree() *Slot {
	for _, s := range l.slots {
		if s.Status == SlotFree {
			s.Status = SlotBooked
			return s
		}
	}
	return nil
}

// CancelSlot releases a BOOKED slot. Returns false when the slot is missing
// or already FREE.
func (l *SlotLedger) CancelSlot(id int) bool {
	s, ok := l.byID[id]
	if !ok || s.Status != SlotBooked {
		return false
	}
	s.Status = SlotFree
	return true
}

// FindSlot returns the slot with the given id, or nil. O(1).
func (l *SlotLedger) FindSlot(id int) *Slot { return l.byID[id] }

// PendingCount is the number of BOOKED slots.
func (l *SlotLedger) PendingCount() int {
	n := 0
	for _, s := range l.slots {
		if s.Status == SlotBooked {
			n++
		}
	}
	return n
}

// NextFreeSlot returns the first FREE slot in traversal order without
// booking it, or nil.
func (l *SlotLedger) NextFreeSlot() *Slot {
	for _, s := range l.slots {
		if s.Status == SlotFree {
			return s
		}
	}
	return nil
}
