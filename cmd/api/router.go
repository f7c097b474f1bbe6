package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	authDelivery "github.com/Floressek/MailAnalyzer/internal/auth/delivery"
	emailDelivery "github.com/Floressek/MailAnalyzer/internal/email/delivery"
)

func SetupRoutes(r *gin.Engine, authHandler *authDelivery.AuthHandler, emailHandler *emailDelivery.EmailHandler, db *gorm.DB) {
	// OAuth redirect target, outside the /api group
	r.GET("/auth/callback", authHandler.Callback)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			if db != nil {
				sqlDB, err := db.DB()
				if err == nil {
					err = sqlDB.PingContext(c.Request.Context())
				}
				if err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := api.Group("/auth")
		{
			auth.GET("/url/:provider", authHandler.GetAuthURL)
			auth.POST("/authenticate", authHandler.Authenticate)
			auth.GET("/test/:provider", authHandler.TestConnection)
			auth.GET("/tokens", authHandler.ListTokens)
			auth.DELETE("/token/:provider", authHandler.RemoveToken)
		}

		emails := api.Group("/emails")
		{
			emails.POST("/analyze", emailHandler.Analyze)
			emails.GET("/analyses/:provider", emailHandler.GetAnalyses)
			emails.POST("/:provider", emailHandler.FetchEmails)
		}

		api.POST("/search", emailHandler.Search)
	}
}
