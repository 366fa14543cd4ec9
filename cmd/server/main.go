// Command server starts the SkillProof HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/skillproof/internal/adapter/ai"
	"github.com/fairyhunter13/skillproof/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/skillproof/internal/adapter/auth"
	"github.com/fairyhunter13/skillproof/internal/adapter/export"
	httpserver "github.com/fairyhunter13/skillproof/internal/adapter/httpserver"
	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/skillproof/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/skillproof/internal/adapter/textextractor"
	tikaext "github.com/fairyhunter13/skillproof/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/skillproof/internal/app"
	"github.com/fairyhunter13/skillproof/internal/assessment"
	"github.com/fairyhunter13/skillproof/internal/config"
	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/service/ratelimiter"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

// devJWTSecret is only used outside prod when JWT_SECRET is unset.
const devJWTSecret = "skillproof-dev-secret"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	ctx := context.Background()
	shutdownTracer, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: DB pool and schema
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	// Optional Redis for the shared oracle throttle
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
	}
	limiter := ratelimiter.NewRedisLimiter(rdb, map[string]ratelimiter.BucketConfig{
		ai.LimiterKey: ratelimiter.NewBucketConfigFromPerMinute(cfg.OracleCallsPerMin),
	})

	// Oracle and assessment engine
	oracle, providers, err := buildOracle(ctx, cfg, limiter)
	if err != nil {
		return err
	}
	defer providers.Close()
	engine := assessment.NewEngine(oracle, tokencount.NewCounter(), cfg.OracleMaxPromptTokens)

	// Optional report events
	var publisher domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p, err := redpanda.NewReportPublisher(ctx, cfg.KafkaBrokers, cfg.ReportsTopic)
		if err != nil {
			return fmt.Errorf("redpanda publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	} else {
		slog.Info("KAFKA_BROKERS not set; report events disabled")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		slog.Warn("JWT_SECRET not set; using development secret")
		secret = devJWTSecret
	}
	tokens, err := auth.NewJWTIssuer(secret, cfg.JWTTokenTTL)
	if err != nil {
		return err
	}

	// Repositories
	users := postgres.NewHRUserRepo(pool)
	jobs := postgres.NewJobPositionRepo(pool)
	links := postgres.NewTestLinkRepo(pool)
	candidates := postgres.NewCandidateRepo(pool)
	resumes := postgres.NewResumeAnalysisRepo(pool)
	sessions := postgres.NewSkillSessionRepo(pool)
	logs := postgres.NewIntegrityLogRepo(pool)
	evaluations := postgres.NewEvaluationResultRepo(pool)
	reports := postgres.NewReportRepo(pool)

	tika := tikaext.New(cfg.TikaURL, cfg.TikaTimeout)

	// Usecases
	linkSvc := usecase.NewLinkService(links, jobs, cfg.FrontendURL, cfg.TestLinkExpiryDays)
	integritySvc := usecase.IntegrityService{Links: linkSvc, Sessions: sessions, Logs: logs}
	scoringSvc := usecase.ScoringService{
		Links: links, Jobs: jobs, Candidates: candidates, Resumes: resumes,
		Evaluations: evaluations, Reports: reports, Integrity: integritySvc,
		Assessor: engine, Publisher: publisher,
	}
	srv := &httpserver.Server{
		Cfg:   cfg,
		Auth:  usecase.NewAuthService(users, auth.NewArgon2Hasher(), tokens),
		Jobs:  usecase.NewJobService(jobs),
		Links: linkSvc,
		Candidates: usecase.CandidateService{
			Links: linkSvc, Jobs: jobs, Candidates: candidates, Resumes: resumes, Sessions: sessions,
			Assessor: engine, Detector: textextractor.Detector{}, Extractor: tika,
			MaxUploadBytes: cfg.MaxUploadBytes(),
		},
		Sessions: usecase.SessionService{
			Links: linkSvc, Jobs: jobs, Candidates: candidates, Sessions: sessions, Logs: logs,
			Assessor: engine, Scorer: scoringSvc,
		},
		Integrity: integritySvc,
		Dashboard: usecase.DashboardService{
			Jobs: jobs, Sessions: sessions, Evaluations: evaluations, Reports: reports,
			Exporter: export.ExcelExporter{},
		},
		Tokens: tokens,
		Checks: app.BuildReadinessChecks(pool, rdb, tika),
	}

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.BuildRouter(cfg, srv),
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	return srvHTTP.Shutdown(shutdownCtx)
}
