package clinic

// UndoKind tags an undo record with the forward action it inverts.
type UndoKind string

const (
	UndoKindBook   UndoKind = "BOOK"
	UndoKindCancel UndoKind = "CANCEL"
	// The SERVE_ROUTINE inverse re-enqueues the token at the tail of the
	// routine queue, not at its original position. Known limitation.
	UndoKindServeRoutine UndoKind = "SERVE_ROUTINE"
	UndoKindServeTriage  UndoKind = "SERVE_TRIAGE"
	UndoKindTriageInsert UndoKind = "TRIAGE_INSERT"
)

// UndoRecord describes one applied mutation with enough payload to invert
// it. Severity is meaningful only for the triage kinds.
type UndoRecord struct {
	Kind     UndoKind
	Token    Token
	Severity int
}

// UndoLog is a stack of undo records. Push and Pop are O(1).
type UndoLog struct {
	records []UndoRecord
}

func NewUndoLog() *UndoLog { return &UndoLog{} }

func (u *UndoLog) Push(r UndoRecord) { u.records = append(u.records, r) }

func (u *UndoLog) Pop() (UndoRecord, bool) {
	if len(u.records) == 0 {
		return UndoRecord{}, false
	}
	r := u.records[len(u.records)-1]
	u.records = u.records[:len(u.records)-1]
	return r, true
}

func (u *UndoLog) Len() int { return len(u.records) }
