package main

import (
	"log"
	"os"
	"time"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/captcha/adapters/events"
	"github.com/layer-3/captcha/adapters/store"
	"github.com/layer-3/captcha/adapters/tokenizer"
	"github.com/layer-3/captcha/ports"
	"github.com/layer-3/captcha/service"
	"github.com/layer-3/captcha/transport/http"
)

func main() {
	// Generate a new ECDSA key pair for solve proofs (you would
	// normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	cfg := service.Config{
		Client: os.Getenv("CAPTCHA_CLIENT"),
		Secret: os.Getenv("CAPTCHA_SECRET"),
	}

	expiry := service.DefaultExpiry
	if v := os.Getenv("CAPTCHA_EXPIRY"); v != "" {
		expiry, err = time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Failed to parse CAPTCHA_EXPIRY: %v", err)
		}
		cfg.Expiry = expiry
	}

	proofTokenizer := tokenizer.NewJWTTokenizer(privateKey)

	opts := []service.Option{
		service.WithTokenizer(proofTokenizer),
	}

	// The in-memory store serves a single process; point REDIS_URL at
	// a Redis instance to share tokens across replicas.
	var tokenStore ports.Store = store.NewMemoryStore(expiry)

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}

		redisClient := redis.NewClient(redisOpts)
		tokenStore = store.NewRedisStore(redisClient, expiry)

		// Initialize Watermill Redis publisher
		logger := watermill.NewStdLogger(false, false)
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}

		opts = append(opts, service.WithEventPublisher(events.NewWatermillPublisher(publisher)))
	}

	captchaService, err := service.New(cfg, tokenStore, opts...)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup Gin router
	router := http.SetupRouter(captchaService, proofTokenizer)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":9000"
	}

	// Start server
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
