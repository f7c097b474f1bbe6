package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authDelivery "github.com/Floressek/MailAnalyzer/internal/auth/delivery"
	authUsecase "github.com/Floressek/MailAnalyzer/internal/auth/usecase"
	emailDelivery "github.com/Floressek/MailAnalyzer/internal/email/delivery"
	emailUsecasePkg "github.com/Floressek/MailAnalyzer/internal/email/usecase"
	"github.com/Floressek/MailAnalyzer/pkg/config"
	"github.com/Floressek/MailAnalyzer/pkg/provider"
)

type Handler struct {
	authHandler  *authDelivery.AuthHandler
	emailHandler *emailDelivery.EmailHandler
	config       *config.Config
	db           *gorm.DB
}

func NewHandler(
	registry *provider.Registry,
	tokenManager *authUsecase.TokenManager,
	emailUc emailUsecasePkg.EmailUsecase,
	searchService *emailUsecasePkg.SearchService,
	cfg *config.Config,
	db *gorm.DB,
) *Handler {
	return &Handler{
		authHandler:  authDelivery.NewAuthHandler(registry, tokenManager),
		emailHandler: emailDelivery.NewEmailHandler(emailUc, searchService),
		config:       cfg,
		db:           db,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authHandler, h.emailHandler, h.db)

	return r.Run(addr)
}
