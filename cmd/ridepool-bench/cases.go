// README: Benchmark test cases covering HTTP, DB, Redis, and join concurrency checks.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridepool/internal/lock"
	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/vehicle"
	"ridepool/internal/types"
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
		httpc: &http.Client{Timeout: 10 * time.Second},
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

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{Name: "Env: Postgres connect", Run: pingDB},
		{Name: "Env: Redis connect", Run: pingRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: tablesExist},
		httpCase("API: health", base+"/health", http.StatusOK),
		httpCase("API: metrics", base+"/metrics", http.StatusOK),
		httpCase("API: rides require auth", base+"/api/rides/nearby?at=10.85,76.27", http.StatusUnauthorized),
		{Name: "Concurrency: join never overbooks", Run: concurrentJoin},
		{Name: "Perf: eligibility checks", Run: perfEligibility},
	}
}

func pingDB(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func pingRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
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
	return Result{Status: statusPass, Note: strings.Join(tables, ",")}
}

func httpCase(name, url string, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != want {
				return Result{Status: statusFail, Latency: time.Since(start), Note: fmt.Sprintf("status=%d want=%d", resp.StatusCode, want)}
			}
			return Result{Status: statusPass, Latency: time.Since(start)}
		},
	}
}

// rideEnv builds a ride service over the configured Postgres and Redis, with a
// freshly registered vehicle.
func (r *Runner) rideEnv(ctx context.Context) (*ride.Service, types.ID, error) {
	vehicles := vehicle.NewService(vehicle.NewStore(r.db))
	v, err := vehicles.Register(ctx, vehicle.RegisterCommand{DriverID: "bench-driver", Seats: r.cfg.Seats + 1, Mileage: 18})
	if err != nil {
		return nil, "", err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ride.NewService(ride.NewStore(r.db), ride.Deps{
		Locker:   lock.NewRedis(r.redis, 5*time.Second, 50),
		Vehicles: vehicles,
		Logger:   quiet,
	})
	return svc, v.ID, nil
}

func (r *Runner) offer(ctx context.Context, svc *ride.Service, vehicleID types.ID) (*ride.Ride, error) {
	distance := 40.0
	return svc.Create(ctx, ride.CreateCommand{
		DriverID:    "bench-driver",
		VehicleID:   vehicleID,
		Origin:      ride.Location{Lat: 10.85, Lng: 76.27},
		Destination: ride.Location{Lat: 10.52, Lng: 76.21},
		DepartAt:    time.Now().Add(time.Hour),
		DistanceKm:  &distance,
		TotalPeople: r.cfg.Seats + 1,
	})
}

func concurrentJoin(ctx context.Context, r *Runner) Result {
	if r.db == nil || r.redis == nil {
		return Result{Status: statusSkip, Note: "needs db and redis"}
	}
	svc, vehicleID, err := r.rideEnv(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	offer, err := r.offer(ctx, svc, vehicleID)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
		errs   int
	)
	start := time.Now()
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Join(ctx, ride.JoinCommand{
				RideID:       offer.ID,
				PassengerID:  types.ID(fmt.Sprintf("bench-passenger-%d", i)),
				Verification: ride.VerificationVerified,
				Pickup:       "10.85,76.27",
				Dropoff:      "10.52,76.21",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs++
			case res.Allowed:
				joined++
			case res.Reason == ride.ReasonRideFull:
				full++
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	got, err := svc.Get(ctx, offer.ID)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	note := fmt.Sprintf("joined=%d full=%d errors=%d roster=%d seats=%d", joined, full, errs, len(got.Passengers), r.cfg.Seats)
	if len(got.Passengers) > r.cfg.Seats || joined != len(got.Passengers) {
		return Result{Status: statusFail, Latency: elapsed, Note: note}
	}
	return Result{Status: statusPass, Latency: elapsed, Note: note}
}

func perfEligibility(ctx context.Context, r *Runner) Result {
	if r.db == nil || r.redis == nil {
		return Result{Status: statusSkip, Note: "needs db and redis"}
	}
	svc, vehicleID, err := r.rideEnv(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	offer, err := r.offer(ctx, svc, vehicleID)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}

	end := time.Now().Add(r.cfg.Duration)
	var (
		count    int64
		errCount int64
		mu       sync.Mutex
		wg       sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := ride.CheckoutCommand{
				RideID:       offer.ID,
				PassengerID:  types.ID(fmt.Sprintf("bench-reader-%d", i)),
				Verification: ride.VerificationVerified,
				Pickup:       "10.85,76.27",
				Dropoff:      "10.52,76.21",
			}
			for time.Now().Before(end) && ctx.Err() == nil {
				_, err := svc.CheckEligibility(ctx, cmd)
				mu.Lock()
				if err != nil {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no checks completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
