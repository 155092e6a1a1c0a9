package handler

import (
	"net/http"

	"autoreply/pkg/logger"
	"autoreply/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(responseHandler *ResponseHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("autoreply-service"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "autoreply-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Все эндпоинты автоответчика требуют аутентификации
	autoreply := router.Group("/autoreply")
	autoreply.Use(authMiddleware.Authenticate())
	{
		autoreply.POST("/generate", responseHandler.Generate)
		autoreply.POST("/approve", responseHandler.Approve)
		autoreply.POST("/reject", responseHandler.Reject)
		autoreply.POST("/feedback", responseHandler.Feedback)

		autoreply.GET("/status", responseHandler.Status)
		autoreply.GET("/responses", responseHandler.ListResponses)
		autoreply.GET("/logs", responseHandler.ListLogs)

		autoreply.POST("/queue/drain", responseHandler.DrainQueue)

		autoreply.GET("/settings", responseHandler.GetSettings)
		autoreply.PUT("/settings", responseHandler.UpdateSettings)

		autoreply.POST("/providers/:name/test", responseHandler.TestProvider)
	}

	return router
}
