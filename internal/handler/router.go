package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blockparty/server/internal/config"
	"blockparty/server/internal/handler/middleware"
	"blockparty/server/internal/metrics"
	jwtpkg "blockparty/server/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	authHandler *AuthHandler,
	partyHandler *PartyHandler,
	rsvpHandler *RSVPHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(metrics.Middleware())

	// Health check and metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.GET("/oauth2/:provider/authorize", authHandler.Authorize)
		auth.GET("/oauth2/:provider/callback", authHandler.Callback)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Party listing widens with identity but does not require it.
	r.GET("/api/v1/parties", middleware.OptionalJWTAuth(jwtManager), partyHandler.List)

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)

		protected.POST("/parties", partyHandler.Create)
		protected.GET("/parties/:id", partyHandler.Get)
		protected.PUT("/parties/:id", partyHandler.Update)
		protected.DELETE("/parties/:id", partyHandler.Delete)
		protected.POST("/parties/:id/verify", partyHandler.Verify)

		protected.POST("/parties/:id/rsvps", rsvpHandler.Create)
		protected.POST("/parties/:id/rsvps/:rsvpID/verify", rsvpHandler.Verify)
		protected.DELETE("/parties/:id/rsvps", rsvpHandler.Cancel)
	}

	return r
}
