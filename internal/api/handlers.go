package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/opdflow/internal/clinic"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func handleClinicError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, clinic.ErrNoFreeSlot):
		writeError(w, http.StatusConflict, "no_free_slot", "no free slot for this doctor, retry later")
	case errors.Is(err, clinic.ErrQueueFull):
		writeError(w, http.StatusConflict, "queue_full", "routine queue is full, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

func registerPatientHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p := clinic.Patient{ID: req.ID, Name: req.Name, Age: req.Age, Severity: req.Severity}
		if err := c.RegisterPatient(r.Context(), p); err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PatientResponse{
			ID:       p.ID,
			Name:     p.Name,
			Age:      p.Age,
			Severity: p.Severity,
		})
	}
}

func getPatientHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathInt(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be an integer")
			return
		}

		p, err := c.Patient(r.Context(), id)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, PatientResponse{
			ID:       p.ID,
			Name:     p.Name,
			Age:      p.Age,
			Severity: p.Severity,
			History:  p.History,
		})
	}
}

func addDoctorHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d := clinic.Doctor{ID: req.ID, Name: req.Name, Specialization: req.Specialization}
		if err := c.AddDoctor(r.Context(), d); err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, req)
	}
}

func addSlotHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := pathInt(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be an integer")
			return
		}

		var req AddSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := c.AddSlot(r.Context(), doctorID, req.SlotID, req.Start, req.End); err != nil {
			if errors.Is(err, clinic.ErrSlotExists) {
				writeError(w, http.StatusConflict, "slot_exists", err.Error())
				return
			}
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, req)
	}
}

func bookRoutineHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRoutineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		tok, err := c.BookRoutine(r.Context(), req.PatientID, req.DoctorID)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, tokenResponse(tok))
	}
}

func cancelBookingHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenID, ok := pathInt(r, "tokenId")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_token_id", "tokenId must be an integer")
			return
		}

		if !c.CancelBooking(tokenID) {
			writeError(w, http.StatusNotFound, "token_not_found", "no queued token with this id")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func triageInsertHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TriageInsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID := clinic.UnassignedDoctor
		if req.DoctorID != nil {
			doctorID = *req.DoctorID
		}

		tok := c.TriageInsert(req.PatientID, req.Severity, doctorID)
		writeJSON(w, http.StatusCreated, tokenResponse(tok))
	}
}

func serveNextHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := c.ServeNext()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse(tok))
	}
}

func undoHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := c.UndoLast()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, UndoResponse{Outcome: outcome})
	}
}

func doctorReportHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := c.PerDoctorReport(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func loadReportHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.ServedVsPending())
	}
}

func frequentPatientsHandler(c *clinic.Clinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k := 3
		if raw := r.URL.Query().Get("k"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid_k", "k must be a non-negative integer")
				return
			}
			k = n
		}
		writeJSON(w, http.StatusOK, c.TopFrequentPatients(k))
	}
}
