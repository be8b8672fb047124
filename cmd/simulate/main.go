// Load driver for a running clinic-server. Registers a pool of patients and
// doctors, then fires a mixed workload of bookings, cancellations, triage
// inserts, serves and undos at the HTTP API and prints latency stats per op.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Patients     int
	Doctors      int
	SlotsPerDoc  int
	BookRatio    float64
	CancelRatio  float64
	TriageRatio  float64
	ServeRatio   float64
	// remainder of the ratio space is undo
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 8),
		Patients:    getInt("SIM_PATIENTS", 200),
		Doctors:     getInt("SIM_DOCTORS", 10),
		SlotsPerDoc: getInt("SIM_SLOTS_PER_DOCTOR", 40),
		BookRatio:   getFloat("SIM_BOOK_RATIO", 0.40),
		CancelRatio: getFloat("SIM_CANCEL_RATIO", 0.10),
		TriageRatio: getFloat("SIM_TRIAGE_RATIO", 0.15),
		ServeRatio:  getFloat("SIM_SERVE_RATIO", 0.25),
	}
	return cfg
}

// DataPool shares booked token ids between workers so cancels have
// something to target.
type DataPool struct {
	mu     sync.Mutex
	tokens []int
}

func (dp *DataPool) AddToken(id int) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.tokens = append(dp.tokens, id)
}

func (dp *DataPool) TakeRandomToken() (int, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.tokens) == 0 {
		return 0, false
	}
	idx := rand.Intn(len(dp.tokens))
	id := dp.tokens[idx]
	dp.tokens = append(dp.tokens[:idx], dp.tokens[idx+1:]...)
	return id, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict || status == http.StatusNotFound:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type tokenReply struct {
	TokenID int `json:"token_id"`
}

func main() {
	cfg := loadSimConfig()
	gofakeit.Seed(time.Now().UnixNano())

	fmt.Printf("simulate: base_url=%s duration=%s workers=%d patients=%d doctors=%d slots/doctor=%d\n",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.Patients, cfg.Doctors, cfg.SlotsPerDoc)

	client := &http.Client{Timeout: 10 * time.Second}

	if err := setup(client, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}

	pool := &DataPool{}
	metrics := map[string]*OperationMetrics{
		"book":   {},
		"cancel": {},
		"triage": {},
		"serve":  {},
		"undo":   {},
	}

	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for time.Now().Before(deadline) {
				runOp(client, cfg, pool, metrics, rng)
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	printSummary(metrics)
}

func setup(client *http.Client, cfg SimConfig) error {
	for id := 1; id <= cfg.Patients; id++ {
		body := map[string]any{
			"id":       id,
			"name":     gofakeit.Name(),
			"age":      gofakeit.Number(1, 95),
			"severity": gofakeit.Number(0, 5),
		}
		if _, err := post(client, cfg.APIBaseURL+"/patients", body, nil); err != nil {
			return fmt.Errorf("register patient %d: %w", id, err)
		}
	}

	for id := 1; id <= cfg.Doctors; id++ {
		body := map[string]any{
			"id":             id,
			"name":           "Dr. " + gofakeit.LastName(),
			"specialization": "General",
		}
		if _, err := post(client, cfg.APIBaseURL+"/doctors", body, nil); err != nil {
			return fmt.Errorf("add doctor %d: %w", id, err)
		}

		for s := 0; s < cfg.SlotsPerDoc; s++ {
			slotID := id*1000 + s
			start := fmt.Sprintf("%02d:%02d", 9+s/4, (s%4)*15)
			end := fmt.Sprintf("%02d:%02d", 9+(s+1)/4, ((s+1)%4)*15)
			slot := map[string]any{"slot_id": slotID, "start": start, "end": end}
			url := fmt.Sprintf("%s/doctors/%d/slots", cfg.APIBaseURL, id)
			if _, err := post(client, url, slot, nil); err != nil {
				return fmt.Errorf("add slot %d: %w", slotID, err)
			}
		}
	}

	return nil
}

func runOp(client *http.Client, cfg SimConfig, pool *DataPool, metrics map[string]*OperationMetrics, rng *rand.Rand) {
	roll := rng.Float64()

	switch {
	case roll < cfg.BookRatio:
		body := map[string]any{
			"patient_id": rng.Intn(cfg.Patients) + 1,
			"doctor_id":  rng.Intn(cfg.Doctors) + 1,
		}
		var reply tokenReply
		start := time.Now()
		status, err := post(client, cfg.APIBaseURL+"/bookings", body, &reply)
		record(metrics["book"], start, status, err)
		if err == nil && status == http.StatusCreated {
			pool.AddToken(reply.TokenID)
		}

	case roll < cfg.BookRatio+cfg.CancelRatio:
		tokenID, ok := pool.TakeRandomToken()
		if !ok {
			return
		}
		start := time.Now()
		status, err := do(client, http.MethodDelete, fmt.Sprintf("%s/bookings/%d", cfg.APIBaseURL, tokenID), nil, nil)
		record(metrics["cancel"], start, status, err)

	case roll < cfg.BookRatio+cfg.CancelRatio+cfg.TriageRatio:
		body := map[string]any{
			"patient_id": rng.Intn(cfg.Patients) + 1,
			"severity":   rng.Intn(6),
		}
		start := time.Now()
		status, err := post(client, cfg.APIBaseURL+"/triage", body, nil)
		record(metrics["triage"], start, status, err)

	case roll < cfg.BookRatio+cfg.CancelRatio+cfg.TriageRatio+cfg.ServeRatio:
		start := time.Now()
		status, err := post(client, cfg.APIBaseURL+"/serve", nil, nil)
		record(metrics["serve"], start, status, err)

	default:
		start := time.Now()
		status, err := post(client, cfg.APIBaseURL+"/undo", nil, nil)
		record(metrics["undo"], start, status, err)
	}
}

func record(m *OperationMetrics, start time.Time, status int, err error) {
	if err != nil {
		status = 0
	}
	m.Record(time.Since(start), status)
}

func post(client *http.Client, url string, body any, out any) (int, error) {
	return do(client, http.MethodPost, url, body, out)
}

func do(client *http.Client, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	return resp.StatusCode, nil
}

func printSummary(metrics map[string]*OperationMetrics) {
	ops := make([]string, 0, len(metrics))
	for op := range metrics {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Println("\n=== simulation summary ===")
	for _, op := range ops {
		m := metrics[op]
		avg, min, max, p50, p95 := m.Stats()
		fmt.Printf("%-8s total=%-6d ok=%-6d conflict=%-6d err=%-6d avg=%-10s min=%-10s max=%-10s p50=%-10s p95=%s\n",
			op, m.Total, m.Success, m.Conflict, m.Error, avg, min, max, p50, p95)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
