package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/probab1ly/project-tgbotcontest/internal/config"
	modsvc "github.com/probab1ly/project-tgbotcontest/internal/services/moderation"
	winnersvc "github.com/probab1ly/project-tgbotcontest/internal/services/winner"
	"github.com/probab1ly/project-tgbotcontest/internal/transport/http/handlers"
)

type Dependencies struct {
	ModerationService *modsvc.Service
	WinnerService     *winnersvc.Service
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	winnerHandler := handlers.NewWinnerHandler(deps.WinnerService)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/winner", winnerHandler.Handle)
		r.Get("/moderation/queue_size", moderationHandler.QueueSize)
	})
}
