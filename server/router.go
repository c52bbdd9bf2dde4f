package server

import (
	"net/http"
	"time"

	httpHandler "ratings-aggregator/interfaces/http"
	"ratings-aggregator/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	streamHandler httpHandler.IStreamHandler,
	ratingHandler httpHandler.IRatingHandler,
	healthHandler httpHandler.IHealthHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	// Stremio clients call from arbitrary origins.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/manifest.json", streamHandler.Manifest)
	router.GET("/stream/:type/:id", streamHandler.Stream)

	api := router.Group("api")
	api.GET("/ratings/:type/:id", ratingHandler.GetRatings)

	router.GET("/healthz", healthHandler.Healthz)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	return router
}
