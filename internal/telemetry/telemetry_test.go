package telemetry

import (
	"context"
	"testing"

	"github.com/bengalcodingacademy-dev/admin/internal/logging"
)

func TestSetup_NoEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown := Setup(context.Background(), "bcaadmin", "test", logging.Discard())
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "127.0.0.1:1")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	// The gRPC exporter connects lazily, so setup succeeds without a collector.
	shutdown := Setup(context.Background(), "bcaadmin", "test", logging.Discard())
	if shutdown == nil {
		t.Fatal("nil shutdown func")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
