package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pingis-club/league-api/external/telegram"
	"github.com/pingis-club/league-api/internal/config"
	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/gamerequest"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/rating"
	"github.com/pingis-club/league-api/internal/domain/season"
	initdata "github.com/pingis-club/league-api/internal/infrastructure/identity/telegram"
	cacherepo "github.com/pingis-club/league-api/internal/infrastructure/repository/cache"
	"github.com/pingis-club/league-api/internal/infrastructure/repository/memory"
	"github.com/pingis-club/league-api/internal/infrastructure/repository/postgres"
	"github.com/pingis-club/league-api/internal/interfaces/httpapi"
	basecache "github.com/pingis-club/league-api/internal/platform/cache"
	idgen "github.com/pingis-club/league-api/internal/platform/id"
	"github.com/pingis-club/league-api/internal/platform/logging"
	"github.com/pingis-club/league-api/internal/platform/resilience"
	"github.com/pingis-club/league-api/internal/usecase"
)

type repositories struct {
	players     player.Repository
	seasons     season.Repository
	divisions   division.Repository
	memberships division.MembershipRepository
	matches     match.Repository
	history     rating.HistoryRepository
	requests    gamerequest.Repository
}

// NewHTTPServer assembles the full service and returns the server plus a
// cleanup that releases infrastructure resources.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.seasons = cacherepo.NewSeasonRepository(repos.seasons, store)
		repos.divisions = cacherepo.NewDivisionRepository(repos.divisions, store)
		repos.memberships = cacherepo.NewMembershipRepository(repos.memberships, store)
		repos.matches = cacherepo.NewMatchRepository(repos.matches, store)
	}

	notifier := buildNotifier(cfg, logger)
	ids := idgen.NewRandomGenerator()

	playerSvc := usecase.NewPlayerService(
		repos.players,
		repos.seasons,
		repos.divisions,
		repos.memberships,
		repos.history,
		ids,
		logger,
	)
	seasonSvc := usecase.NewSeasonService(repos.seasons, repos.divisions)
	matchSvc := usecase.NewMatchService(
		repos.seasons,
		repos.divisions,
		repos.memberships,
		repos.players,
		repos.matches,
		notifier,
		ids,
		logger,
	)
	standingsSvc := usecase.NewStandingsService(repos.divisions, repos.memberships, repos.players)
	gameRequestSvc := usecase.NewGameRequestService(
		repos.seasons,
		repos.memberships,
		repos.players,
		repos.requests,
		notifier,
		ids,
		logger,
	)
	reconcileSvc := usecase.NewReconcileService(repos.matches, logger)

	verifier := initdata.NewVerifier(initdata.VerifierConfig{
		BotToken: cfg.TelegramBotToken,
		MaxAge:   cfg.TelegramInitDataMaxAge,
		Logger:   logger,
	}, playerSvc)

	handler := httpapi.NewHandler(
		seasonSvc,
		playerSvc,
		matchSvc,
		standingsSvc,
		gameRequestSvc,
		reconcileSvc,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		_ = cleanup(context.Background())
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	if cfg.ReconcileOnStartup {
		go runStartupReconcile(reconcileSvc, cfg.ReconcileMaxWorkers, logger)
	}

	return server, cleanup, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, func(context.Context) error, error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Info("store backend", "backend", config.StoreMemory)

		players := memory.NewPlayerRepository(memory.SeedPlayers())
		divisions := memory.NewDivisionRepository(memory.SeedDivisions())
		memberships := memory.NewMembershipRepository(divisions, memory.SeedMemberships())
		history := memory.NewRatingHistoryRepository()
		matches := memory.NewMatchRepository(players, memberships, history, memory.SeedMatches())

		return repositories{
			players:     players,
			seasons:     memory.NewSeasonRepository(memory.SeedSeasons()),
			divisions:   divisions,
			memberships: memberships,
			matches:     matches,
			history:     history,
			requests:    memory.NewGameRequestRepository(),
		}, func(context.Context) error { return nil }, nil
	}

	logger.Info("store backend", "backend", config.StorePostgres, "db_name", dbNameFromURL(cfg.DBURL))

	db, err := openDatabase(cfg)
	if err != nil {
		return repositories{}, nil, err
	}

	return repositories{
		players:     postgres.NewPlayerRepository(db),
		seasons:     postgres.NewSeasonRepository(db),
		divisions:   postgres.NewDivisionRepository(db),
		memberships: postgres.NewMembershipRepository(db),
		matches:     postgres.NewMatchRepository(db),
		history:     postgres.NewRatingHistoryRepository(db),
		requests:    postgres.NewGameRequestRepository(db),
	}, func(context.Context) error { return db.Close() }, nil
}

func buildNotifier(cfg config.Config, logger *logging.Logger) *telegram.Notifier {
	botToken := cfg.TelegramBotToken
	if !cfg.TelegramNotificationsEnabled {
		botToken = ""
	}

	return telegram.NewNotifier(telegram.NotifierConfig{
		APIBaseURL: cfg.TelegramAPIBaseURL,
		BotToken:   botToken,
		Timeout:    cfg.TelegramTimeout,
		MaxRetries: cfg.TelegramMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.TelegramCircuitEnabled,
			FailureThreshold: cfg.TelegramCircuitFailureCount,
			OpenTimeout:      cfg.TelegramCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.TelegramCircuitHalfOpenMaxReq,
		},
	})
}

// Interrupted settlements are invisible to players until a reconcile run
// flips them, so one pass happens right after boot.
func runStartupReconcile(svc *usecase.ReconcileService, maxWorkers int, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := svc.Run(ctx, usecase.ReconcileInput{MaxWorkers: maxWorkers})
	if err != nil {
		logger.ErrorContext(ctx, "startup reconcile failed", "error", err)
		return
	}
	if result.CandidateCount > 0 {
		logger.InfoContext(ctx, "startup reconcile finished",
			"candidates", result.CandidateCount,
			"completed", result.CompletedCount,
			"failed", result.FailedCount,
		)
	}
}
