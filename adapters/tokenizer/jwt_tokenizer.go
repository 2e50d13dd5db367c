package tokenizer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/captcha/core"
	"github.com/layer-3/captcha/ports"
)

const AudienceSolve = "captcha:solve"

// JWTTokenizer implements the Tokenizer interface using JWT. Solve
// proofs let downstream services accept a completed CAPTCHA without
// consulting the token store themselves.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// SolveToProof converts a Solve to a signed JWT proof
func (j *JWTTokenizer) SolveToProof(solve *core.Solve) (string, error) {
	claims := SolveClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   solve.Client,
			ID:        solve.ID,
			ExpiresAt: jwt.NewNumericDate(solve.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(solve.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceSolve},
		},
		Token: solve.Token,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign proof: %w", err)
	}

	return signedToken, nil
}

// ProofToSolve parses and verifies a solve proof JWT
func (j *JWTTokenizer) ProofToSolve(proof string) (*core.Solve, error) {
	token, err := jwt.ParseWithClaims(proof, &SolveClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSolve))

	if err != nil {
		return nil, fmt.Errorf("failed to parse proof: %w", err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidProof
	}

	claims, ok := token.Claims.(*SolveClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	solve := &core.Solve{
		ID:        claims.ID,
		Client:    claims.Subject,
		Token:     claims.Token,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	return solve, nil
}
