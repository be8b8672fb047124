package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry stores each record as a JSON value under
// clinic:patient:<id> / clinic:doctor:<id>.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func patientKey(id int) string { return fmt.Sprintf("clinic:patient:%d", id) }
func doctorKey(id int) string  { return fmt.Sprintf("clinic:doctor:%d", id) }

func (r *RedisRegistry) UpsertPatient(ctx context.Context, p Patient) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	if err := r.client.Set(ctx, patientKey(p.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("store patient: %w", err)
	}
	return nil
}

func (r *RedisRegistry) GetPatient(ctx context.Context, id int) (*Patient, error) {
	data, err := r.client.Get(ctx, patientKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var p Patient
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal patient: %w", err)
	}
	return &p, nil
}

func (r *RedisRegistry) DeletePatient(ctx context.Context, id int) error {
	if err := r.client.Del(ctx, patientKey(id)).Err(); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (r *RedisRegistry) UpsertDoctor(ctx context.Context, d Doctor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal doctor: %w", err)
	}
	if err := r.client.Set(ctx, doctorKey(d.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("store doctor: %w", err)
	}
	return nil
}

func (r *RedisRegistry) GetDoctor(ctx context.Context, id int) (*Doctor, error) {
	data, err := r.client.Get(ctx, doctorKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var d Doctor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal doctor: %w", err)
	}
	return &d, nil
}
