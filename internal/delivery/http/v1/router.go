package v1

import (
	"subsonic-backend/config"
	"subsonic-backend/internal/delivery/http/middleware"
	"subsonic-backend/internal/domain"
	"subsonic-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC domain.ContactUsecase
	HealthUC  usecase.HealthUsecase
	Config    *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.Use(middleware.CORSMiddleware(deps.Config.AllowedOrigins, deps.Config.Production))
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config.Production))
	r.Use(middleware.ErrorHandler())

	api := r.Group("/api")

	NewHealthHandler(api, deps.HealthUC)

	// The site posts to /api/contact; /contact is kept for older deployments.
	limiter := middleware.RateLimitMiddleware(middleware.ContactRateLimitConfig(deps.Config))
	NewContactHandler(deps.ContactUC, limiter, api, &r.RouterGroup)

	// Swagger
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
