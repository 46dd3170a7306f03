package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/http/handlers"
	"github.com/phambaophuc/imgbatch/internal/http/middleware"
)

type Router struct {
	statusHandler *handlers.StatusHandler
	logger        *zap.Logger
}

func NewRouter(
	statusHandler *handlers.StatusHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		statusHandler: statusHandler,
		logger:        logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))

	router.GET("/health", r.statusHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.statusHandler.HealthCheck)
		v1.GET("/stats", r.statusHandler.GetStats)
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image batch upload is running",
		})
	})

	return router
}
