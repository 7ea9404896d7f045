package http

import (
	"net/http"
	"time"

	"github.com/drink-orders/internal/line"
	"github.com/drink-orders/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", logger.RequestIDHeader, line.SignatureHeader},
		ExposeHeaders:   []string{logger.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.RegisterRoutes(r)
	return r
}

// RequireOrigin admits only requests whose Origin header equals allowed exactly.
func RequireOrigin(allowed string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowed == "" || c.GetHeader("Origin") != allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}
		c.Next()
	}
}
