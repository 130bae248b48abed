package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/documents"
	"docqa-backend/internal/services/health"
	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/users"
)

const uploadRateGroup = "UPLOAD"

// RouterDeps carries the handlers and services the router mounts.
type RouterDeps struct {
	Config           config.Config
	Signer           *auth.Signer
	UsersHandler     *users.Handler
	DocumentsHandler *documents.Handler
	Health           *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterPublicRoutes(api)
	}

	authed := api.Group("")
	authed.Use(middleware.Auth(deps.Signer))
	// Uploads are expensive downstream; keep them to 2 per minute per
	// user.
	authed.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			uploadRateGroup: {Rate: 2.0 / 60.0, Burst: 2},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1"+documents.UploadRoute {
				return uploadRateGroup
			}
			return ""
		},
	}))
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(authed)
	}
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
