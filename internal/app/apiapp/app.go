package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/probab1ly/project-tgbotcontest/internal/config"
	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
	redrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/redis"
	modsvc "github.com/probab1ly/project-tgbotcontest/internal/services/moderation"
	winnersvc "github.com/probab1ly/project-tgbotcontest/internal/services/winner"
)

// App is the read-only ops surface: health, winner, moderation queue
// size. All contest interaction happens through the bot.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, int32(cfg.Postgres.MaxConns))
	if err != nil {
		return nil, fmt.Errorf("init postgres for api app: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	profileRepo := pgrepo.NewProfileRepo(pool)
	ratingRepo := pgrepo.NewRatingRepo(pool)
	winnerCache := redrepo.NewWinnerCacheRepo(redisClient)

	moderationService := modsvc.NewService(pool, profileRepo, cfg.Bot.ModeratorChatID)
	winnerService := winnersvc.NewService(ratingRepo, winnerCache, cfg.Contest.WinnerCacheTTL, log)

	RegisterRoutes(r, Dependencies{
		ModerationService: moderationService,
		WinnerService:     winnerService,
		Logger:            log,
		Config:            cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
