package core

import (
	"crypto/rand"
	"math/big"
	"time"
)

const (
	// TokenLength is the length of issued challenge tokens
	TokenLength = 40

	// TokenCharset is the character set tokens are drawn from
	TokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Challenge represents an issued CAPTCHA challenge
type Challenge struct {
	Token    string    // Single-use random token identifying the challenge
	ImageURL string    // URL rendering the challenge as an image
	AudioURL string    // URL rendering the challenge as audio
	IssuedAt time.Time // When the challenge was created
}

// Solve represents a successfully completed challenge
type Solve struct {
	ID        string    // Unique identifier for the solve proof
	Client    string    // Client the challenge was issued for
	Token     string    // The consumed challenge token
	IssuedAt  time.Time // When the challenge was solved
	ExpiresAt time.Time // When the solve proof expires
}

// Outcome is the result of verifying a submitted answer
type Outcome int

const (
	// OutcomeTokenInvalid means the token is unknown, already consumed, or expired
	OutcomeTokenInvalid Outcome = iota

	// OutcomeWrongAnswer means the token was live but the answer did not match
	OutcomeWrongAnswer

	// OutcomeSolved means the challenge was completed successfully
	OutcomeSolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTokenInvalid:
		return "token_invalid"
	case OutcomeWrongAnswer:
		return "wrong_answer"
	case OutcomeSolved:
		return "solved"
	default:
		return "unknown"
	}
}

// GenerateToken returns a fresh high-entropy challenge token
func GenerateToken() (string, error) {
	max := big.NewInt(int64(len(TokenCharset)))

	buf := make([]byte, TokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = TokenCharset[n.Int64()]
	}

	return string(buf), nil
}
