// Command loadtest drives the session core against a live backend the way
// the browser client would: each virtual user owns a session manager and
// navigation guard, and loops through login, guarded navigation, profile
// refresh, and logout until the configured duration elapses.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/service"
	"github.com/examstack/examgate/internal/infrastructure/api"
	"github.com/examstack/examgate/internal/infrastructure/credstore"
	"github.com/examstack/examgate/pkg/logger"
)

type loadConfig struct {
	BackendURL  string        `env:"BACKEND_URL,  default=http://localhost:8080/api/v1"`
	TenantID    string        `env:"TENANT_ID,    default=100"`
	Users       int           `env:"USERS,        default=20"`
	Duration    time.Duration `env:"DURATION,     default=1m"`
	MetricsAddr string        `env:"METRICS_ADDR, default=:9105"`
	LogLevel    string        `env:"LOG_LEVEL,    default=info"`
}

var (
	opsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "examgate_loadtest",
			Name:      "ops_total",
			Help:      "Total session operations issued, by operation and result.",
		},
		[]string{"op", "result"},
	)
	opDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "examgate_loadtest",
			Name:      "op_duration_seconds",
			Help:      "Duration of session operations against the backend.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	guardOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "examgate_loadtest",
			Name:      "guard_outcomes_total",
			Help:      "Navigation guard outcomes observed, by action.",
		},
		[]string{"action"},
	)
)

// testAccount mirrors the seeded load-test users on the backend.
type testAccount struct {
	username string
	password string
	role     domain.Role
	home     string
	// crossPath is a route the account's role must not enter; navigating
	// there exercises the Forbidden branch.
	crossPath string
}

var accounts = []testAccount{
	{"admin", "admin123", domain.RoleAdmin, domain.AdminHomePath, "/teacher/questions"},
	{"teacher1", "teacher123", domain.RoleTeacher, domain.TeacherHomePath, "/admin/users"},
	{"student1", "student123", domain.RoleStudent, domain.StudentHomePath, "/admin/users"},
}

type counters struct {
	iterations atomic.Int64
	failures   atomic.Int64
}

func main() {
	var cfg loadConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("loadtest: failed to load configuration: %v", err))
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	go serveMetrics(cfg.MetricsAddr, log)

	log.Info().
		Int("users", cfg.Users).
		Dur("duration", cfg.Duration).
		Str("backend", cfg.BackendURL).
		Msg("load test starting")

	var totals counters
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < cfg.Users; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runUser(ctx, id, cfg, &totals, log)
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(start)
	iters := totals.iterations.Load()
	fails := totals.failures.Load()
	log.Info().
		Int64("iterations", iters).
		Int64("failures", fails).
		Float64("iterations_per_second", float64(iters)/elapsed.Seconds()).
		Msg("load test finished")
}

// runUser loops the browser scenario for one virtual user until ctx ends.
func runUser(ctx context.Context, id int, cfg loadConfig, totals *counters, log zerolog.Logger) {
	account := accounts[id%len(accounts)]

	store := credstore.NewMemory()
	client := api.NewClient(cfg.BackendURL, store, api.Options{TenantID: cfg.TenantID})
	mgr := service.NewSessionManager(store, client, nil, log.With().Int("vu", id).Logger())
	client.SetUnauthorizedHook(mgr.Invalidate)
	guard := service.NewNavigationGuard(mgr, domain.DefaultRouteTable(), nil, log)

	for ctx.Err() == nil {
		if err := iteration(ctx, account, mgr, guard); err != nil {
			totals.failures.Add(1)
			log.Debug().Err(err).Int("vu", id).Msg("iteration failed")
		}
		totals.iterations.Add(1)

		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(500+rand.Intn(1000)) * time.Millisecond):
		}
	}
}

func iteration(ctx context.Context, account testAccount, mgr *service.SessionManager, guard *service.NavigationGuard) error {
	if res := timedOp("login", func() domain.Result {
		return mgr.Login(ctx, account.username, account.password)
	}); !res.OK {
		return fmt.Errorf("login: %s", res.Message)
	}

	// The account's own landing page must be reachable.
	outcome := guard.Evaluate(ctx, account.home)
	guardOutcomes.WithLabelValues(outcome.Action.String()).Inc()
	if outcome.Action != service.Proceed {
		return fmt.Errorf("navigate %s: unexpected %s", account.home, outcome.Action)
	}

	// A cross-role route must bounce back to the role home.
	outcome = guard.Evaluate(ctx, account.crossPath)
	guardOutcomes.WithLabelValues(outcome.Action.String()).Inc()
	if outcome.Action != service.RedirectHome {
		return fmt.Errorf("navigate %s: expected redirect home, got %s", account.crossPath, outcome.Action)
	}

	start := time.Now()
	err := mgr.FetchUserInfo(ctx)
	opDuration.WithLabelValues("profile_fetch").Observe(time.Since(start).Seconds())
	if err != nil {
		opsTotal.WithLabelValues("profile_fetch", "failed").Inc()
		return fmt.Errorf("profile fetch: %w", err)
	}
	opsTotal.WithLabelValues("profile_fetch", "ok").Inc()

	start = time.Now()
	mgr.Logout(ctx)
	opDuration.WithLabelValues("logout").Observe(time.Since(start).Seconds())
	opsTotal.WithLabelValues("logout", "ok").Inc()
	return nil
}

func timedOp(op string, fn func() domain.Result) domain.Result {
	start := time.Now()
	res := fn()
	opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	if !res.OK {
		result = "failed"
	}
	opsTotal.WithLabelValues(op, result).Inc()
	return res
}

func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Warn().Err(err).Msg("metrics listener stopped")
	}
}
