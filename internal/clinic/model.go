package clinic

import "time"

type SlotStatus string

const (
	SlotFree   SlotStatus = "FREE"
	SlotBooked SlotStatus = "BOOKED"
)

type TokenType string

const (
	TokenRoutine   TokenType = "ROUTINE"
	TokenEmergency TokenType = "EMERGENCY"
)

// UnassignedDoctor marks a triage token that has no doctor bound yet.
const UnassignedDoctor = -1

type Patient struct {
	ID       int
	Name     string
	Age      int
	Severity int // hint recorded at registration; not used for ordering
	History  []string
}

type Doctor struct {
	ID             int
	Name           string
	Specialization string
}

// Slot is one bookable interval in a doctor's ledger. Start and End are
// opaque time strings; no overlap checking is done on them.
type Slot struct {
	ID     int
	Start  string
	End    string
	Status SlotStatus
}

// Token is one visit request. Its fields never change after creation; the
// token only moves between the routine queue, the triage heap and the
// served history.
type Token struct {
	ID        int
	PatientID int
	DoctorID  int // UnassignedDoctor when no doctor is bound
	SlotID    int // 0 when the token holds no slot (emergency tokens)
	Type      TokenType
	CreatedAt time.Time
}
