package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/suresight/suresight-backend/internal/http/handlers"
	"github.com/suresight/suresight-backend/internal/http/middleware"
)

type RouterConfig struct {
	ServiceName      string
	AllowedOrigins   []string
	AuthMiddleware   *middleware.AuthMiddleware
	HealthHandler    *handlers.HealthHandler
	AuthHandler      *handlers.AuthHandler
	UserHandler      *handlers.UserHandler
	PolicyHandler    *handlers.PolicyHandler
	InsurableHandler *handlers.InsurableHandler
	ClaimHandler     *handlers.ClaimHandler
	EvidenceHandler  *handlers.EvidenceHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "suresight-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// User
		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.GET("/users", cfg.UserHandler.ListUsers)
		protected.GET("/users/:id", cfg.UserHandler.GetUser)
		protected.PATCH("/users/:id", cfg.UserHandler.UpdateProfile)
		protected.PUT("/users/:id/role", cfg.UserHandler.ChangeRole)

		// Evidence
		protected.POST("/evidence", cfg.EvidenceHandler.Upload)

		// Policy
		protected.POST("/policies", cfg.PolicyHandler.CreatePolicy)
		protected.GET("/policies", cfg.PolicyHandler.ListPolicies)
		protected.GET("/policies/:id", cfg.PolicyHandler.GetPolicy)
		protected.PATCH("/policies/:id", cfg.PolicyHandler.UpdatePolicy)
		protected.PUT("/policies/:id/status", cfg.PolicyHandler.SetPolicyStatus)
		protected.DELETE("/policies/:id", cfg.PolicyHandler.DeletePolicy)
		protected.GET("/policies/:id/insurables", cfg.InsurableHandler.ListByPolicy)
		protected.GET("/policies/:id/claims", cfg.ClaimHandler.ListByPolicy)

		// Insurable
		protected.POST("/insurables", cfg.InsurableHandler.AddVehicle)
		protected.GET("/insurables", cfg.InsurableHandler.ListInsurables)
		protected.GET("/insurables/:id", cfg.InsurableHandler.GetInsurable)
		protected.PATCH("/insurables/:id", cfg.InsurableHandler.UpdateVehicle)
		protected.DELETE("/insurables/:id", cfg.InsurableHandler.DeleteInsurable)

		// Claim
		protected.POST("/claims", cfg.ClaimHandler.CreateClaim)
		protected.GET("/claims", cfg.ClaimHandler.ListClaims)
		protected.GET("/claims/:id", cfg.ClaimHandler.GetClaim)
		protected.PUT("/claims/:id/decision", cfg.ClaimHandler.DecideClaim)
		protected.DELETE("/claims/:id", cfg.ClaimHandler.DeleteClaim)
	}

	return router
}
