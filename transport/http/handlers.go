package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/captcha/core"
	"github.com/layer-3/captcha/service"
)

// CaptchaHandlers contains HTTP handlers for the challenge endpoints
type CaptchaHandlers struct {
	captchaService *service.CaptchaService
}

// NewCaptchaHandlers creates new captcha handlers
func NewCaptchaHandlers(captchaService *service.CaptchaService) *CaptchaHandlers {
	return &CaptchaHandlers{
		captchaService: captchaService,
	}
}

// Challenge issues a new CAPTCHA challenge
func (h *CaptchaHandlers) Challenge(c *gin.Context) {
	challenge, err := h.captchaService.IssueChallenge(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     challenge.Token,
		"image_url": challenge.ImageURL,
		"audio_url": challenge.AudioURL,
	})
}

// Verify checks a submitted answer against its challenge token
func (h *CaptchaHandlers) Verify(c *gin.Context) {
	var req struct {
		Token  string `json:"token" binding:"required"`
		Answer string `json:"answer" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	outcome, proof, err := h.captchaService.Verify(c.Request.Context(), req.Token, req.Answer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}

	// The core reports outcomes, never user-facing text; the
	// translation happens here.
	switch outcome {
	case core.OutcomeSolved:
		resp := gin.H{"solved": true}
		if proof != "" {
			resp["proof"] = proof
		}
		c.JSON(http.StatusOK, resp)
	case core.OutcomeWrongAnswer:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Wrong answer"})
	default:
		c.JSON(http.StatusGone, gin.H{"error": "Challenge expired or already used"})
	}
}

// Verified reports the solve behind a valid proof. The proof
// middleware has already validated the token, so reaching this handler
// means the caller completed a challenge.
func (h *CaptchaHandlers) Verified(c *gin.Context) {
	token, exists := c.Get("solvedToken")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Solve not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified": true,
		"token":    token,
	})
}

// Health is a liveness probe
func (h *CaptchaHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
