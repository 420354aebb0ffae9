// README: Bench cases: environment, migrations, chat and booking flows, races and throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"tripbot/internal/infra"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 20 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

// happyPath is the scripted conversation that ends in a booking.
var happyPath = []string{
	"hi",
	"Gagan",
	"gagan.bajpai@gmail.com",
	"Coorg",
	"2025-05-08 to 2025-05-12",
	"just me, a relaxing leisure trip",
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusSkip, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Migration: apply (optional)", Run: func(ctx context.Context, r *Runner) Result {
			if !r.cfg.ApplyMigration {
				return Result{Status: statusSkip, Note: "apply-migration=false"}
			}
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			if err := infra.ApplyMigrations(ctx, r.db, r.cfg.MigrationDir); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Migration: tables exist", Run: checkTables},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			resp, latency, err := r.call(ctx, http.MethodGet, "/health", "", nil)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return expect(resp, latency, http.StatusOK)
		}},
		{Name: "Flights: bad airport code -> 400", Run: func(ctx context.Context, r *Runner) Result {
			resp, latency, err := r.call(ctx, http.MethodGet, "/api/travel/search_flights?source=Bengaluru&destination=GOI&travel_date=2025-05-08", "", nil)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return expect(resp, latency, http.StatusBadRequest)
		}},
		{Name: "Chat: empty message -> 400", Run: func(ctx context.Context, r *Runner) Result {
			resp, latency, err := r.call(ctx, http.MethodPost, "/api/chat", "", map[string]string{"message": "  "})
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return expect(resp, latency, http.StatusBadRequest)
		}},
		{Name: "Chat: invalid email keeps step", Run: func(ctx context.Context, r *Runner) Result {
			sid := uuid.NewString()
			for _, msg := range []string{"hi", "Gagan"} {
				if _, err := r.chat(ctx, sid, msg); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
			}
			out, err := r.chat(ctx, sid, "not-an-email")
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if out.CurrentStep != "email_collection" {
				return Result{Status: statusFail, Note: "step=" + out.CurrentStep}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Quote: missing data -> 422", Run: func(ctx context.Context, r *Runner) Result {
			sid := uuid.NewString()
			if _, err := r.chat(ctx, sid, "hi"); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			resp, latency, err := r.call(ctx, http.MethodPost, "/api/quote", sid, nil)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return expect(resp, latency, http.StatusUnprocessableEntity)
		}},
		{Name: "Flow: chat to booking, cancel twice", Run: bookingFlow},
		{Name: "Flow: negative confirmation keeps fields", Run: func(ctx context.Context, r *Runner) Result {
			sid := uuid.NewString()
			if _, err := r.walk(ctx, sid); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			out, err := r.chat(ctx, sid, "no")
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if out.CurrentStep != "destination_collection" || out.CollectedData["destination"] != "Coorg" {
				return Result{Status: statusFail, Note: fmt.Sprintf("step=%s fields=%v", out.CurrentStep, out.CollectedData)}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Concurrency: cancel same booking", Run: concurrentCancel},
		{Name: "Perf: chat throughput", Run: perfChat},
	}
}

type turn struct {
	SessionID      string            `json:"session_id"`
	CurrentStep    string            `json:"current_step"`
	CollectedData  map[string]string `json:"collected_data"`
	AdditionalData struct {
		Booking *struct {
			Reference string `json:"reference"`
			Status    string `json:"status"`
		} `json:"booking"`
	} `json:"additional_data"`
}

func (r *Runner) call(ctx context.Context, method, path, sid string, body any) (*http.Response, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.Header.Set("X-Session-ID", sid)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	return resp, time.Since(start), err
}

func (r *Runner) chat(ctx context.Context, sid, msg string) (turn, error) {
	var out turn
	resp, _, err := r.call(ctx, http.MethodPost, "/api/chat", sid, map[string]string{"message": msg})
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("chat %q: status=%d", msg, resp.StatusCode)
	}
	return out, json.NewDecoder(resp.Body).Decode(&out)
}

// walk runs happyPath and returns the confirmation turn.
func (r *Runner) walk(ctx context.Context, sid string) (turn, error) {
	var out turn
	var err error
	for _, msg := range happyPath {
		if out, err = r.chat(ctx, sid, msg); err != nil {
			return out, err
		}
	}
	if out.CurrentStep != "confirmation" {
		return out, fmt.Errorf("expected confirmation, got %s", out.CurrentStep)
	}
	return out, nil
}

func (r *Runner) book(ctx context.Context) (string, error) {
	sid := uuid.NewString()
	if _, err := r.walk(ctx, sid); err != nil {
		return "", err
	}
	out, err := r.chat(ctx, sid, "yes")
	if err != nil {
		return "", err
	}
	if out.AdditionalData.Booking == nil || out.CurrentStep != "final_confirmation" {
		return "", fmt.Errorf("no booking, step=%s", out.CurrentStep)
	}
	return out.AdditionalData.Booking.Reference, nil
}

func bookingFlow(ctx context.Context, r *Runner) Result {
	start := time.Now()
	ref, err := r.book(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if r.db != nil {
		var status string
		if err := r.db.QueryRow(ctx, `SELECT status FROM bookings WHERE reference=$1`, ref).Scan(&status); err != nil {
			return Result{Status: statusFail, Note: "booking row: " + err.Error()}
		}
		if status != "confirmed" {
			return Result{Status: statusFail, Note: "stored status=" + status}
		}
	}
	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		resp, _, err := r.call(ctx, http.MethodPost, "/api/bookings/"+ref+"/cancel", "", nil)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		drain(resp)
		if resp.StatusCode != want {
			return Result{Status: statusFail, Note: fmt.Sprintf("cancel #%d status=%d", i+1, resp.StatusCode)}
		}
	}
	return Result{Status: statusPass, Latency: time.Since(start), Note: ref}
}

func concurrentCancel(ctx context.Context, r *Runner) Result {
	ref, err := r.book(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	succ := 0
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _, err := r.call(ctx, http.MethodPost, "/api/bookings/"+ref+"/cancel", "", nil)
			if err != nil {
				return
			}
			drain(resp)
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				succ++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if succ != 1 {
		return Result{Status: statusFail, Note: fmt.Sprintf("success=%d", succ)}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("success=%d", succ)}
}

// perfChat sends greetings on fresh sessions; 429s count as rate limited.
func perfChat(ctx context.Context, r *Runner) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, limited, errCount int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				resp, _, err := r.call(ctx, http.MethodPost, "/api/chat", uuid.NewString(), map[string]string{"message": "hi"})
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case resp.StatusCode == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
				if err == nil {
					drain(resp)
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f limited=%d errors=%d", rps, limited, errCount)}
}

func checkTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationDir)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("%d tables", len(tables))}
}

func expect(resp *http.Response, latency time.Duration, want int) Result {
	drain(resp)
	note := fmt.Sprintf("status=%d", resp.StatusCode)
	if resp.StatusCode != want {
		return Result{Status: statusFail, Latency: latency, Note: note}
	}
	return Result{Status: statusPass, Latency: latency, Note: note}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

var createTable = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, m := range createTable.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	return tables, nil
}
