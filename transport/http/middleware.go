package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/captcha/ports"
)

// ProofHeader carries the solve proof on protected requests
const ProofHeader = "X-Captcha-Proof"

// ProofMiddleware creates middleware that admits only requests carrying
// a valid solve proof
func ProofMiddleware(tokenizer ports.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		proof := c.GetHeader(ProofHeader)
		if proof == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing solve proof"})
			return
		}

		solve, err := tokenizer.ProofToSolve(proof)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid solve proof"})
			return
		}

		if time.Now().After(solve.ExpiresAt) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Solve proof expired"})
			return
		}

		// Expose the solved challenge token to downstream handlers
		c.Set("solvedToken", solve.Token)

		c.Next()
	}
}
