package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"appointment-scheduler/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Env:            "development",
		Port:           "50051",
		WebPort:        "8080",
		HTTPPort:       "8000",
		Store:          config.StoreMemory,
		JWTSecret:      "test-secret",
		StoreTimeout:   time.Second,
		Timezone:       "UTC",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}
}

func TestNewServerMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := NewServer(ctx, memoryConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer s.Close()
	if s.pool != nil {
		t.Error("memory store must not open a pool")
	}
	if s.web.Addr != ":8080" || s.api.Addr != ":8000" {
		t.Errorf("addrs: %s %s", s.web.Addr, s.api.Addr)
	}
}

func TestNewServerRejectsBadConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.JWTSecret = ""
	if _, err := NewServer(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		if NewLogger(env) == nil {
			t.Errorf("%s: nil logger", env)
		}
	}
}
