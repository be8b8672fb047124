package clinic

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

// PatientRegistry stores patient records. Implementations are plain
// key-value stores; the clinic depends on nothing beyond upsert, get and
// delete.
type PatientRegistry interface {
	UpsertPatient(ctx context.Context, p Patient) error
	GetPatient(ctx context.Context, id int) (*Patient, error)
	DeletePatient(ctx context.Context, id int) error
}

// DoctorRegistry stores doctor records.
type DoctorRegistry interface {
	UpsertDoctor(ctx context.Context, d Doctor) error
	GetDoctor(ctx context.Context, id int) (*Doctor, error)
}

// MemoryRegistry keeps patients and doctors in process memory. It is the
// default backend and the one tests run against.
type MemoryRegistry struct {
	mu       sync.RWMutex
	patients map[int]Patient
	doctors  map[int]Doctor
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		patients: make(map[int]Patient),
		doctors:  make(map[int]Doctor),
	}
}

func (m *MemoryRegistry) UpsertPatient(_ context.Context, p Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
	return nil
}

func (m *MemoryRegistry) GetPatient(_ context.Context, id int) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *MemoryRegistry) DeletePatient(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.patients, id)
	return nil
}

func (m *MemoryRegistry) UpsertDoctor(_ context.Context, d Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.ID] = d
	return nil
}

func (m *MemoryRegistry) GetDoctor(_ context.Context, id int) (*Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}
