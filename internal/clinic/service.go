package clinic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNoFreeSlot and ErrQueueFull are capacity failures; the caller may
	// retry later.
	ErrNoFreeSlot = errors.New("no free slot for doctor")
	ErrQueueFull  = errors.New("routine queue is full")

	// ErrSlotExists rejects a duplicate slot id within one doctor's ledger.
	ErrSlotExists = errors.New("slot already exists")

	// ErrUnknownUndoKind indicates a logic defect, not a user error.
	ErrUnknownUndoKind = errors.New("unknown undo record kind")
)

// Token ids are handed out monotonically starting here.
const firstTokenID = 1000

// Clinic owns the routine queue, the triage heap, the per-doctor slot
// ledgers and the undo log, and keeps them mutually consistent. Every public
// method runs under one mutex: operations touch several structures and must
// appear atomic, and no finer-grained locking is safe given the invariants
// between them.
type Clinic struct {
	mu sync.Mutex

	patients PatientRegistry
	doctors  DoctorRegistry

	ledgers   map[int]*SlotLedger
	routine   *RoutineQueue
	triage    *TriageQueue
	undo      *UndoLog
	served    []Token
	nextToken int

	log zerolog.Logger
}

func New(patients PatientRegistry, doctors DoctorRegistry, queueCapacity int, log zerolog.Logger) *Clinic {
	return &Clinic{
		patients:  patients,
		doctors:   doctors,
		ledgers:   make(map[int]*SlotLedger),
		routine:   NewRoutineQueue(queueCapacity),
		triage:    NewTriageQueue(),
		undo:      NewUndoLog(),
		nextToken: firstTokenID,
		log:       log,
	}
}

// RegisterPatient upserts a patient record. Re-registering an id overwrites
// the previous record.
func (c *Clinic) RegisterPatient(ctx context.Context, p Patient) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.patients.UpsertPatient(ctx, p); err != nil {
		return fmt.Errorf("upsert patient: %w", err)
	}

	c.log.Info().Int("patient_id", p.ID).Msg("patient registered")
	return nil
}

func (c *Clinic) Patient(ctx context.Context, id int) (*Patient, error) {
	return c.patients.GetPatient(ctx, id)
}

// AddDoctor upserts a doctor record and ensures a slot ledger exists for it.
func (c *Clinic) AddDoctor(ctx context.Context, d Doctor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.doctors.UpsertDoctor(ctx, d); err != nil {
		return fmt.Errorf("upsert doctor: %w", err)
	}
	if _, ok := c.ledgers[d.ID]; !ok {
		c.ledgers[d.ID] = NewSlotLedger()
	}

	c.log.Info().Int("doctor_id", d.ID).Str("specialization", d.Specialization).Msg("doctor added")
	return nil
}

// AddSlot adds a FREE slot to the doctor's ledger.
func (c *Clinic) AddSlot(ctx context.Context, doctorID, slotID int, start, end string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	led, err := c.ledgerFor(ctx, doctorID)
	if err != nil {
		return err
	}
	if !led.AddSlot(slotID, start, end) {
		return fmt.Errorf("%w: slot %d for doctor %d", ErrSlotExists, slotID, doctorID)
	}
	return nil
}

// ledgerFor returns the doctor's ledger, creating it lazily for doctors that
// exist only in the registry (e.g. seeded ahead of time).
func (c *Clinic) ledgerFor(ctx context.Context, doctorID int) (*SlotLedger, error) {
	if led, ok := c.ledgers[doctorID]; ok {
		return led, nil
	}
	if _, err := c.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	led := NewSlotLedger()
	c.ledgers[doctorID] = led
	return led, nil
}

// BookRoutine books the doctor's next free slot for the patient and enqueues
// a routine token. The patient and doctor must exist; a full queue rolls the
// slot booking back before surfacing ErrQueueFull.
func (c *Clinic) BookRoutine(ctx context.Context, patientID, doctorID int) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.patients.GetPatient(ctx, patientID); err != nil {
		return Token{}, err
	}
	led, err := c.ledgerFor(ctx, doctorID)
	if err != nil {
		return Token{}, err
	}

	slot := led.BookNextFree()
	if slot == nil {
		return Token{}, ErrNoFreeSlot
	}

	tok := c.newToken(patientID, doctorID, slot.ID, TokenRoutine)
	if !c.routine.Enqueue(tok) {
		slot.Status = SlotFree
		return Token{}, ErrQueueFull
	}

	c.undo.Push(UndoRecord{Kind: UndoKindBook, Token: tok})
	c.log.Info().
		Int("token_id", tok.ID).
		Int("patient_id", patientID).
		Int("doctor_id", doctorID).
		Int("slot_id", slot.ID).
		Msg("routine visit booked")
	return tok, nil
}

// CancelBooking removes a routine token from the queue and frees its slot.
// Returns false when no queued token has the id.
func (c *Clinic) CancelBooking(tokenID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, ok := c.routine.RemoveByID(tokenID)
	if !ok {
		return false
	}
	c.freeSlot(tok)
	c.undo.Push(UndoRecord{Kind: UndoKindCancel, Token: tok})

	c.log.Info().Int("token_id", tok.ID).Msg("booking cancelled")
	return true
}

// TriageInsert queues an emergency visit. The heap is unbounded so insertion
// always succeeds; pass UnassignedDoctor when no doctor is bound yet.
func (c *Clinic) TriageInsert(patientID, severity, doctorID int) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok := c.newToken(patientID, doctorID, 0, TokenEmergency)
	c.triage.Insert(tok, severity)
	c.undo.Push(UndoRecord{Kind: UndoKindTriageInsert, Token: tok, Severity: severity})

	c.log.Info().
		Int("token_id", tok.ID).
		Int("patient_id", patientID).
		Int("severity", severity).
		Msg("triage token inserted")
	return tok
}

// ServeNext hands out the next visit. A non-empty triage heap always wins;
// the routine queue yields its head only when no emergency is waiting.
// Returns false when both are empty.
func (c *Clinic) ServeNext() (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tok, severity, ok := c.triage.ExtractMin(); ok {
		c.served = append(c.served, tok)
		c.undo.Push(UndoRecord{Kind: UndoKindServeTriage, Token: tok, Severity: severity})
		c.log.Info().Int("token_id", tok.ID).Int("severity", severity).Msg("triage token served")
		return tok, true
	}

	tok, ok := c.routine.Dequeue()
	if !ok {
		return Token{}, false
	}
	c.served = append(c.served, tok)
	c.undo.Push(UndoRecord{Kind: UndoKindServeRoutine, Token: tok})
	c.log.Info().Int("token_id", tok.ID).Msg("routine token served")
	return tok, true
}

// UndoLast pops one undo record and applies its inverse across the queue,
// heap and ledgers. The returned text describes the outcome; an empty log is
// a no-op, not an error.
func (c *Clinic) UndoLast() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.undo.Pop()
	if !ok {
		return "Nothing to undo", nil
	}

	switch rec.Kind {
	case UndoKindBook:
		if _, removed := c.routine.RemoveByID(rec.Token.ID); !removed {
			return "Could not find token to undo", nil
		}
		c.freeSlot(rec.Token)
		c.log.Info().Int("token_id", rec.Token.ID).Msg("undid booking")
		return fmt.Sprintf("Undid booking token %d", rec.Token.ID), nil

	case UndoKindCancel:
		c.rebookSlot(rec.Token)
		if !c.routine.Enqueue(rec.Token) {
			c.freeSlot(rec.Token)
			return fmt.Sprintf("Could not rebook token %d: queue full", rec.Token.ID), nil
		}
		c.log.Info().Int("token_id", rec.Token.ID).Msg("undid cancellation")
		return fmt.Sprintf("Undid cancellation: rebooked token %d", rec.Token.ID), nil

	case UndoKindServeRoutine:
		// Tail re-insertion: the token's original queue position is not
		// restored.
		if !c.routine.Enqueue(rec.Token) {
			return fmt.Sprintf("Could not requeue token %d: queue full", rec.Token.ID), nil
		}
		c.removeServed(rec.Token.ID)
		c.log.Info().Int("token_id", rec.Token.ID).Msg("undid routine serve")
		return fmt.Sprintf("Undid serving of routine token %d", rec.Token.ID), nil

	case UndoKindServeTriage:
		c.triage.Insert(rec.Token, rec.Severity)
		c.removeServed(rec.Token.ID)
		c.log.Info().Int("token_id", rec.Token.ID).Int("severity", rec.Severity).Msg("undid triage serve")
		return fmt.Sprintf("Undid serving of triage token %d", rec.Token.ID), nil

	case UndoKindTriageInsert:
		if !c.triage.RemoveByID(rec.Token.ID) {
			return "Could not find triage token to undo", nil
		}
		c.log.Info().Int("token_id", rec.Token.ID).Msg("undid triage insert")
		return fmt.Sprintf("Undid triage insert %d", rec.Token.ID), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUndoKind, rec.Kind)
	}
}

func (c *Clinic) newToken(patientID, doctorID, slotID int, typ TokenType) Token {
	tok := Token{
		ID:        c.nextToken,
		PatientID: patientID,
		DoctorID:  doctorID,
		SlotID:    slotID,
		Type:      typ,
		CreatedAt: time.Now(),
	}
	c.nextToken++
	return tok
}

func (c *Clinic) freeSlot(tok Token) {
	if led, ok := c.ledgers[tok.DoctorID]; ok {
		if s := led.FindSlot(tok.SlotID); s != nil {
			s.Status = SlotFree
		}
	}
}

func (c *Clinic) rebookSlot(tok Token) {
	if led, ok := c.ledgers[tok.DoctorID]; ok {
		if s := led.FindSlot(tok.SlotID); s != nil {
			s.Status = SlotBooked
		}
	}
}

func (c *Clinic) removeServed(tokenID int) {
	for i, t := range c.served {
		if t.ID == tokenID {
			c.served = append(c.served[:i], c.served[i+1:]...)
			return
		}
	}
}

// DoctorReport summarizes one doctor's slot load.
type DoctorReport struct {
	DoctorID           int    `json:"doctor_id"`
	DoctorName         string `json:"doctor_name"`
	PendingBookedSlots int    `json:"pending_booked_slots"`
	NextFreeSlotID     *int   `json:"next_free_slot_id"`
}

// PerDoctorReport lists every doctor with a ledger, sorted by id.
func (c *Clinic) PerDoctorReport(ctx context.Context) ([]DoctorReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.ledgers))
	for id := range c.ledgers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	reports := make([]DoctorReport, 0, len(ids))
	for _, id := range ids {
		led := c.ledgers[id]
		rep := DoctorReport{DoctorID: id, PendingBookedSlots: led.PendingCount()}

		d, err := c.doctors.GetDoctor(ctx, id)
		switch {
		case err == nil:
			rep.DoctorName = d.Name
		case errors.Is(err, ErrDoctorNotFound):
			// ledger without a registry record: report it with a blank name
		default:
			return nil, fmt.Errorf("load doctor %d: %w", id, err)
		}

		if s := led.NextFreeSlot(); s != nil {
			slotID := s.ID
			rep.NextFreeSlotID = &slotID
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// LoadReport counts served tokens against everything still waiting.
type LoadReport struct {
	Served  int `json:"served"`
	Pending int `json:"pending"`
}

func (c *Clinic) ServedVsPending() LoadReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return LoadReport{
		Served:  len(c.served),
		Pending: c.routine.Len() + c.triage.Len(),
	}
}

// PatientCount pairs a patient with the number of visits served.
type PatientCount struct {
	PatientID int `json:"patient_id"`
	Count     int `json:"count"`
}

// TopFrequentPatients ranks patients by served-visit count, highest first.
// Ties keep the order of first appearance in the served history.
func (c *Clinic) TopFrequentPatients(k int) []PatientCount {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[int]int)
	var order []int
	for _, t := range c.served {
		if _, seen := counts[t.PatientID]; !seen {
			order = append(order, t.PatientID)
		}
		counts[t.PatientID]++
	}

	ranked := make([]PatientCount, 0, len(order))
	for _, pid := range order {
		ranked = append(ranked, PatientCount{PatientID: pid, Count: counts[pid]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
