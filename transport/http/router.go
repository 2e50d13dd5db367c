package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/captcha/ports"
	"github.com/layer-3/captcha/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(captchaService *service.CaptchaService, tokenizer ports.Tokenizer) *gin.Engine {
	router := gin.Default()

	// Create handlers
	handlers := NewCaptchaHandlers(captchaService)

	router.GET("/healthz", handlers.Health)

	// Challenge routes
	captcha := router.Group("/captcha")
	{
		captcha.POST("/challenge", handlers.Challenge)
		captcha.POST("/verify", handlers.Verify)
	}

	// Routes gated on a completed challenge
	if tokenizer != nil {
		api := router.Group("/api")
		api.Use(ProofMiddleware(tokenizer))
		{
			api.GET("/verified", handlers.Verified)
		}
	}

	return router
}
