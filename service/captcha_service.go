package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/captcha/core"
	"github.com/layer-3/captcha/ports"
)

// Defaults matching the documented rendering-service contract: optional
// URL parameters are emitted only when a value differs from these.
const (
	DefaultNumberOfLetters = 6
	DefaultWidth           = 240
	DefaultHeight          = 80
	DefaultExpiry          = 24 * time.Hour
	DefaultProofTTL        = 5 * time.Minute

	DefaultImageBaseURL = "https://image.captchas.net/"
	DefaultAudioBaseURL = "https://audio.captchas.net/"
)

// Config holds the immutable per-instance CAPTCHA settings
type Config struct {
	Client string // Client identifier sent to the rendering service
	Secret string // Shared secret keying password derivation, never transmitted

	NumberOfLetters int           // Derived password length, default 6
	Alphabet        string        // Output alphabet, default lowercase a-z
	Width           int           // Image width, default 240
	Height          int           // Image height, default 80
	Expiry          time.Duration // Token lifetime, default 24h

	ImageBaseURL string // Image rendering endpoint
	AudioBaseURL string // Audio rendering endpoint

	// LegacyMD5 selects the historical md5(secret+token) digest instead
	// of HMAC-SHA256, for compatibility with deployments that derive
	// the password on both ends.
	LegacyMD5 bool
}

// setDefaults fills zero-valued optional fields
func (c *Config) setDefaults() {
	if c.NumberOfLetters == 0 {
		c.NumberOfLetters = DefaultNumberOfLetters
	}
	if c.Alphabet == "" {
		c.Alphabet = core.StandardAlphabet
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Expiry == 0 {
		c.Expiry = DefaultExpiry
	}
	if c.ImageBaseURL == "" {
		c.ImageBaseURL = DefaultImageBaseURL
	}
	if c.AudioBaseURL == "" {
		c.AudioBaseURL = DefaultAudioBaseURL
	}
}

// validate rejects configurations the service must refuse to start with
func (c *Config) validate() error {
	if c.Client == "" {
		return core.ErrNoClient
	}
	if c.Secret == "" {
		return core.ErrNoSecret
	}
	if c.Alphabet == "" {
		return core.ErrEmptyAlphabet
	}
	if c.NumberOfLetters < 1 {
		return core.ErrNoLetters
	}
	if c.Width < 1 || c.Height < 1 {
		return core.ErrBadDimensions
	}
	return nil
}

// CaptchaService issues single-use CAPTCHA challenges and verifies
// submitted answers
type CaptchaService struct {
	cfg      Config
	deriver  *core.Deriver
	store    ports.Store
	tokeniz  ports.Tokenizer
	eventPub ports.EventPublisher
	proofTTL time.Duration
}

// Option configures optional service collaborators
type Option func(*CaptchaService)

// WithTokenizer enables minting of signed solve proofs on success
func WithTokenizer(t ports.Tokenizer) Option {
	return func(s *CaptchaService) {
		s.tokeniz = t
	}
}

// WithEventPublisher enables challenge lifecycle events
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *CaptchaService) {
		s.eventPub = p
	}
}

// WithProofTTL overrides the solve-proof lifetime
func WithProofTTL(ttl time.Duration) Option {
	return func(s *CaptchaService) {
		s.proofTTL = ttl
	}
}

// New creates a new CAPTCHA service. Configuration errors are fatal
// here; no per-request operation ever reports one.
func New(cfg Config, store ports.Store, opts ...Option) (*CaptchaService, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	deriver, err := core.NewDeriver(cfg.Secret, cfg.Alphabet, cfg.NumberOfLetters, cfg.LegacyMD5)
	if err != nil {
		return nil, err
	}

	s := &CaptchaService{
		cfg:      cfg,
		deriver:  deriver,
		store:    store,
		proofTTL: DefaultProofTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Config returns a copy of the effective configuration, with defaults
// applied
func (s *CaptchaService) Config() Config {
	return s.cfg
}

// IssueChallenge generates a fresh single-use token, registers it in
// the store, and returns it with its rendering URLs. Generation
// retries until the store accepts the token: the loop is the liveness
// guarantee against the vanishingly rare collision, not an
// optimization.
func (s *CaptchaService) IssueChallenge(ctx context.Context) (*core.Challenge, error) {
	var token string
	for {
		t, err := core.GenerateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		ok, err := s.store.AddToken(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to register token: %w", err)
		}
		if ok {
			token = t
			break
		}
	}

	imageURL, err := s.ImageURL(token)
	if err != nil {
		return nil, err
	}
	audioURL, err := s.AudioURL(token)
	if err != nil {
		return nil, err
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishIssued(ctx, token); err != nil {
			// The challenge is already registered, which is the part
			// that matters; events are best-effort.
			fmt.Printf("Warning: Failed to publish issued event: %v\n", err)
		}
	}

	return &core.Challenge{
		Token:    token,
		ImageURL: imageURL,
		AudioURL: audioURL,
		IssuedAt: time.Now(),
	}, nil
}

// URLOption overrides per-call URL parameters
type URLOption func(*urlOptions)

type urlOptions struct {
	baseURL string
}

// WithBaseURL overrides the rendering endpoint for a single call
func WithBaseURL(base string) URLOption {
	return func(o *urlOptions) {
		o.baseURL = base
	}
}

// ImageURL builds the image rendering URL for a token. The query
// carries the derived password, never the raw token.
func (s *CaptchaService) ImageURL(token string, opts ...URLOption) (string, error) {
	base := s.cfg.ImageBaseURL
	if o := applyURLOptions(opts); o.baseURL != "" {
		base = o.baseURL
	}

	url, err := s.renderURL(base, token)
	if err != nil {
		return "", err
	}

	if s.cfg.Width != DefaultWidth {
		url += fmt.Sprintf("&width=%d", s.cfg.Width)
	}
	if s.cfg.Height != DefaultHeight {
		url += fmt.Sprintf("&height=%d", s.cfg.Height)
	}

	return url, nil
}

// AudioURL builds the audio rendering URL for a token. Audio has no
// spatial dimensions, so width and height never appear.
func (s *CaptchaService) AudioURL(token string, opts ...URLOption) (string, error) {
	base := s.cfg.AudioBaseURL
	if o := applyURLOptions(opts); o.baseURL != "" {
		base = o.baseURL
	}

	return s.renderURL(base, token)
}

// renderURL builds the common URL prefix. The parameter order is part
// of the rendering-service contract, so the query is assembled by hand:
// url.Values would re-sort the keys alphabetically.
func (s *CaptchaService) renderURL(base, token string) (string, error) {
	password, err := s.deriver.Derive(token)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s?client=%s&random=%s", base, s.cfg.Client, password)
	if s.cfg.Alphabet != core.StandardAlphabet {
		fmt.Fprintf(&b, "&alphabet=%s", s.cfg.Alphabet)
	}
	if s.cfg.NumberOfLetters != DefaultNumberOfLetters {
		fmt.Fprintf(&b, "&letters=%d", s.cfg.NumberOfLetters)
	}

	return b.String(), nil
}

func applyURLOptions(opts []URLOption) urlOptions {
	var o urlOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsTokenLive reports whether the token is live, consuming it when
// invalidate is true. An empty token is immediately false without
// touching the store.
func (s *CaptchaService) IsTokenLive(ctx context.Context, token string, invalidate bool) (bool, error) {
	if token == "" {
		return false, nil
	}

	return s.store.Validate(ctx, token, invalidate)
}

// CheckAnswer reports whether the submitted text matches the password
// derived from the token. Empty inputs and wrong-length answers are
// false before any hashing happens. The token store is never consulted
// here; single-use enforcement is a separate IsTokenLive call.
func (s *CaptchaService) CheckAnswer(token, answer string) bool {
	if token == "" || answer == "" {
		return false
	}
	if len(answer) != s.cfg.NumberOfLetters {
		return false
	}

	expected, err := s.deriver.Derive(token)
	if err != nil {
		return false
	}

	return expected == answer
}

// Verify consumes the token and checks the submitted answer, reporting
// a tri-state outcome. The token is burned even when the answer is
// wrong: each rendered challenge grants exactly one attempt. On
// success a signed solve proof is minted when a tokenizer is wired.
func (s *CaptchaService) Verify(ctx context.Context, token, answer string) (core.Outcome, string, error) {
	live, err := s.IsTokenLive(ctx, token, true)
	if err != nil {
		return core.OutcomeTokenInvalid, "", fmt.Errorf("failed to validate token: %w", err)
	}

	var outcome core.Outcome
	switch {
	case !live:
		outcome = core.OutcomeTokenInvalid
	case s.CheckAnswer(token, answer):
		outcome = core.OutcomeSolved
	default:
		outcome = core.OutcomeWrongAnswer
	}

	var proof string
	if outcome == core.OutcomeSolved && s.tokeniz != nil {
		now := time.Now()
		solve := &core.Solve{
			ID:        uuid.New().String(),
			Client:    s.cfg.Client,
			Token:     token,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.proofTTL),
		}

		proof, err = s.tokeniz.SolveToProof(solve)
		if err != nil {
			return outcome, "", fmt.Errorf("failed to mint solve proof: %w", err)
		}
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishVerified(ctx, token, outcome); err != nil {
			fmt.Printf("Warning: Failed to publish verified event: %v\n", err)
		}
	}

	return outcome, proof, nil
}
