package core

import "errors"

var (
	ErrNoClient            = errors.New("no client ID provided")
	ErrNoSecret            = errors.New("no secret provided")
	ErrEmptyAlphabet       = errors.New("alphabet must not be empty")
	ErrNoLetters           = errors.New("need at least one letter")
	ErrBadDimensions       = errors.New("image dimensions must be positive")
	ErrLettersExceedDigest = errors.New("letter count exceeds digest size")
	ErrEmptyToken          = errors.New("no challenge token supplied")
	ErrInvalidProof        = errors.New("invalid solve proof")
)
