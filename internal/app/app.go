package app

import (
	"context"
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/volleyball-dashboard/external/sportdb"
	"github.com/riskibarqy/volleyball-dashboard/internal/config"
	"github.com/riskibarqy/volleyball-dashboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/volleyball-dashboard/internal/interfaces/httpapi"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/cache"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/riskibarqy/volleyball-dashboard/internal/platform/resilience"
	"github.com/riskibarqy/volleyball-dashboard/internal/usecase"
)

// App owns the long-lived components of the API process.
type App struct {
	Server *http.Server

	dashboard *usecase.DashboardService
	scheduler *usecase.MatchScheduler
	weekly    *usecase.WeeklyRefreshService
	logger    *logging.Logger
}

// Options overrides process dependencies. Tests inject a fake clock and a stub data source server.
type Options struct {
	Clock      clockwork.Clock
	HTTPClient *http.Client
}

func New(cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	leagueRepo, err := memory.NewLeagueRepository(memory.SeedLeagues())
	if err != nil {
		return nil, crerr.Wrap(err, "seed leagues")
	}
	if _, exists, err := leagueRepo.GetByID(context.Background(), cfg.DefaultLeagueID); err != nil || !exists {
		return nil, fmt.Errorf("default league %q is not configured", cfg.DefaultLeagueID)
	}

	logos := memory.NewTeamLogoRegistry()
	store := cache.NewStore(cache.WithClock(clock), cache.WithDefaultTTL(cfg.CacheDefaultTTL))

	source := sportdb.NewClient(sportdb.ClientConfig{
		HTTPClient: opts.HTTPClient,
		BaseURL:    cfg.SportDBBaseURL,
		APIKey:     cfg.SportDBAPIKey,
		UserAgent:  cfg.SportDBUserAgent,
		Timeout:    cfg.SportDBTimeout,
		MaxRetries: cfg.SportDBMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportDBCircuitEnabled,
			FailureThreshold: cfg.SportDBCircuitFailureCount,
			OpenTimeout:      cfg.SportDBCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportDBCircuitHalfOpenMaxReq,
		},
		Logos: logos,
		Clock: clock,
	})

	scheduler := usecase.NewMatchScheduler(usecase.MatchSchedulerConfig{
		Clock:  clock,
		Logger: logger,
	})

	dashboardSvc := usecase.NewDashboardService(leagueRepo, source, store, logos, scheduler, usecase.DashboardServiceConfig{
		TTL: usecase.DashboardCacheTTL{
			Standings: cfg.CacheStandingsTTL,
			Upcoming:  cfg.CacheUpcomingTTL,
			Previous:  cfg.CachePreviousTTL,
			Active:    cfg.CacheActiveTTL,
		},
		Clock:  clock,
		Logger: logger,
	})

	var weekly *usecase.WeeklyRefreshService
	if cfg.WeeklyRefreshEnabled {
		weekly, err = usecase.NewWeeklyRefreshService(leagueRepo, dashboardSvc, usecase.WeeklyRefreshConfig{
			Schedule:   cfg.WeeklyRefreshSchedule,
			RetryDelay: cfg.WeeklyRefreshRetryDelay,
			Workers:    cfg.WeeklyRefreshWorkers,
			Clock:      clock,
			Logger:     logger,
		})
		if err != nil {
			return nil, crerr.Wrap(err, "build weekly refresh")
		}
	}

	handler := httpapi.NewHandler(dashboardSvc, scheduler, logos, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		dashboard: dashboardSvc,
		scheduler: scheduler,
		weekly:    weekly,
		logger:    logger.Named("app"),
	}, nil
}

// Start launches the weekly refresh, which loads every league once before its first cron run.
func (a *App) Start(ctx context.Context) {
	if a.weekly == nil {
		a.logger.Info("weekly refresh disabled", "reason", "WEEKLY_REFRESH_ENABLED=false")
		return
	}
	a.weekly.Start(ctx)
}

// Shutdown stops the HTTP server first so no request schedules new tracking jobs,
// then the weekly refresh and the tracking loops.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, crerr.Wrap(err, "shutdown http server"))
	}
	if a.weekly != nil {
		if err := a.weekly.Stop(ctx); err != nil {
			errs = append(errs, crerr.Wrap(err, "stop weekly refresh"))
		}
	}
	if err := a.scheduler.Shutdown(ctx); err != nil {
		errs = append(errs, crerr.Wrap(err, "shutdown match scheduler"))
	}
	return crerr.Join(errs...)
}

// Dashboard exposes the orchestrator for process-level tests.
func (a *App) Dashboard() *usecase.DashboardService {
	return a.dashboard
}
