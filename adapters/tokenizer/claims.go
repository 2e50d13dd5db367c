package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SolveClaims combines standard claims with solve-specific ones
type SolveClaims struct {
	jwt.RegisteredClaims
	Token string `json:"tok"` // The consumed challenge token
}
