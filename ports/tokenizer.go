package ports

import "github.com/layer-3/captcha/core"

// Tokenizer converts between solve records and signed proof tokens
type Tokenizer interface {
	// SolveToProof mints a signed proof that a challenge was solved
	SolveToProof(solve *core.Solve) (string, error)

	// ProofToSolve parses and verifies a solve proof
	ProofToSolve(proof string) (*core.Solve, error)
}
