package api

import (
	"time"

	"github.com/clinicore/opdflow/internal/clinic"
)

type RegisterPatientRequest struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Severity int    `json:"severity"`
}

type AddDoctorRequest struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

type AddSlotRequest struct {
	SlotID int    `json:"slot_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type BookRoutineRequest struct {
	PatientID int `json:"patient_id"`
	DoctorID  int `json:"doctor_id"`
}

type TriageInsertRequest struct {
	PatientID int  `json:"patient_id"`
	Severity  int  `json:"severity"`
	DoctorID  *int `json:"doctor_id,omitempty"`
}

type TokenResponse struct {
	TokenID   int       `json:"token_id"`
	PatientID int       `json:"patient_id"`
	DoctorID  int       `json:"doctor_id"`
	SlotID    *int      `json:"slot_id,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type PatientResponse struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Age      int      `json:"age"`
	Severity int      `json:"severity"`
	History  []string `json:"history,omitempty"`
}

type UndoResponse struct {
	Outcome string `json:"outcome"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func tokenResponse(t clinic.Token) TokenResponse {
	resp := TokenResponse{
		TokenID:   t.ID,
		PatientID: t.PatientID,
		DoctorID:  t.DoctorID,
		Type:      string(t.Type),
		CreatedAt: t.CreatedAt,
	}
	if t.SlotID != 0 {
		slotID := t.SlotID
		resp.SlotID = &slotID
	}
	return resp
}
