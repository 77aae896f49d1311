package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/orderdesk/orderdesk/config"
)

func TestNewServicesWithoutRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	services := NewServices(&ServiceDeps{
		Config: &config.AppConfig{},
		DB:     nil,
		Logger: logger,
	})

	if services.Orders == nil {
		t.Fatal("expected order service to be built")
	}
	if services.Customers == nil {
		t.Fatal("expected customer service to be built")
	}
	// Auth requires Redis for session storage.
	if services.Auth != nil {
		t.Fatalf("expected auth service to be nil without redis, got %v", services.Auth)
	}
}

func TestRunServicesWithShutdownValidation(t *testing.T) {
	if err := RunServicesWithShutdown(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	if err := RunServicesWithShutdown(&ServiceOrchestrationConfig{}); err == nil {
		t.Fatal("expected error for missing AppConfig")
	}
}

func TestStartHTTPServerNilConfig(t *testing.T) {
	if srv := StartHTTPServer(nil); srv != nil {
		t.Fatalf("StartHTTPServer(nil) = %v, want nil", srv)
	}
}
