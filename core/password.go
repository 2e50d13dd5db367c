package core

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
)

// StandardAlphabet is the default output alphabet for derived passwords
const StandardAlphabet = "abcdefghijklmnopqrstuvwxyz"

// Deriver computes fixed-length passwords from challenge tokens.
// Derivation is deterministic: the same token always yields the same
// password for a given configuration, so the password is never stored.
type Deriver struct {
	secret    string
	alphabet  string
	length    int
	legacyMD5 bool
}

// NewDeriver creates a password deriver. The default digest is
// HMAC-SHA256 keyed with the secret; legacyMD5 selects the historical
// md5(secret + token) digest for compatibility with existing peers.
func NewDeriver(secret, alphabet string, length int, legacyMD5 bool) (*Deriver, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if alphabet == "" {
		return nil, ErrEmptyAlphabet
	}
	if length < 1 {
		return nil, ErrNoLetters
	}

	digestSize := sha256.Size
	if legacyMD5 {
		digestSize = md5.Size
	}
	if length > digestSize {
		return nil, ErrLettersExceedDigest
	}

	return &Deriver{
		secret:    secret,
		alphabet:  alphabet,
		length:    length,
		legacyMD5: legacyMD5,
	}, nil
}

// Derive computes the password for a challenge token: the first
// `length` digest bytes are each mapped onto the alphabet by modulus.
func (d *Deriver) Derive(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}

	var digest []byte
	if d.legacyMD5 {
		sum := md5.Sum([]byte(d.secret + token))
		digest = sum[:]
	} else {
		mac := hmac.New(sha256.New, []byte(d.secret))
		mac.Write([]byte(token))
		digest = mac.Sum(nil)
	}

	password := make([]byte, d.length)
	for i, b := range digest[:d.length] {
		password[i] = d.alphabet[int(b)%len(d.alphabet)]
	}

	return string(password), nil
}

// Length returns the configured password length.
func (d *Deriver) Length() int {
	return d.length
}
