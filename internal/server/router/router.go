package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.ReportHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	reports := r.Group("/api/v1/reports")
	reports.Use(bearerMiddleware(logger))
	reports.POST("/irrigation-report/", handler.CreateIrrigation)
	reports.POST("/fertilization-report/", handler.CreateFertilization)
	reports.POST("/pesticides-report/", handler.CreatePesticides)
	reports.POST("/compost-report/", handler.CreateCompost)
	reports.POST("/animal-report/", handler.CreateAnimal)
	reports.GET("/:report_id/", handler.Download)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// bearerMiddleware extracts the caller's token and the user_id claim that
// namespaces artifacts. The signature is not verified here; the gateway
// upstream owns verification and this service only forwards the token.
func bearerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := jwt.NewParser()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization bearer token required"})
			return
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			logger.Warn("malformed bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid bearer token"})
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Token is missing the user_id claim"})
			return
		}

		c.Set(handlers.ContextToken, token)
		c.Set(handlers.ContextUserID, userID)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
