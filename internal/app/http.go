package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/suresight/suresight-backend/internal/http"
	"github.com/suresight/suresight-backend/internal/http/handlers"
	"github.com/suresight/suresight-backend/internal/http/middleware"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Policy    *handlers.PolicyHandler
	Insurable *handlers.InsurableHandler
	Claim     *handlers.ClaimHandler
	Evidence  *handlers.EvidenceHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, services.Auth),
	}
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    handlers.NewHealthHandler(),
		Auth:      handlers.NewAuthHandler(services.Auth),
		User:      handlers.NewUserHandler(services.User),
		Policy:    handlers.NewPolicyHandler(services.Policy),
		Insurable: handlers.NewInsurableHandler(services.Insurable),
		Claim:     handlers.NewClaimHandler(services.Claim),
		Evidence:  handlers.NewEvidenceHandler(services.Evidence),
	}
}

func wireRouter(cfg Config, h Handlers, mw Middleware) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		ServiceName:      cfg.ServiceName,
		AllowedOrigins:   cfg.AllowedOrigins,
		AuthMiddleware:   mw.Auth,
		HealthHandler:    h.Health,
		AuthHandler:      h.Auth,
		UserHandler:      h.User,
		PolicyHandler:    h.Policy,
		InsurableHandler: h.Insurable,
		ClaimHandler:     h.Claim,
		EvidenceHandler:  h.Evidence,
	})
}
