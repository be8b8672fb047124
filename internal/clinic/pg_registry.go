package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRegistry backs the patient and doctor registries with Postgres.
//
// Expected schema:
//
//	CREATE TABLE patients (
//	    id       bigint PRIMARY KEY,
//	    name     text   NOT NULL,
//	    age      int    NOT NULL,
//	    severity int    NOT NULL DEFAULT 0,
//	    history  text[] NOT NULL DEFAULT '{}'
//	);
//
//	CREATE TABLE doctors (
//	    id             bigint PRIMARY KEY,
//	    name           text NOT NULL,
//	    specialization text NOT NULL
//	);
type PgRegistry struct {
	pool *pgxpool.Pool
}

func NewPgRegistry(pool *pgxpool.Pool) *PgRegistry {
	return &PgRegistry{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Severity, &p.History)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialization)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRegistry) UpsertPatient(ctx context.Context, p Patient) error {
	history := p.History
	if history == nil {
		history = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, age, severity, history)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name     = EXCLUDED.name,
		    age      = EXCLUDED.age,
		    severity = EXCLUDED.severity,
		    history  = EXCLUDED.history
	`, p.ID, p.Name, p.Age, p.Severity, history)
	if err != nil {
		return fmt.Errorf("upsert patient: %w", err)
	}

	return nil
}

func (r *PgRegistry) GetPatient(ctx context.Context, id int) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, age, severity, history
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRegistry) DeletePatient(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (r *PgRegistry) UpsertDoctor(ctx context.Context, d Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialization)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name           = EXCLUDED.name,
		    specialization = EXCLUDED.specialization
	`, d.ID, d.Name, d.Specialization)
	if err != nil {
		return fmt.Errorf("upsert doctor: %w", err)
	}
	return nil
}

func (r *PgRegistry) GetDoctor(ctx context.Context, id int) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialization
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}
