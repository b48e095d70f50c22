package services_test

import (
	"context"
	"testing"

	"gamelib/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStore(ctx, "Steam")
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if store, ok := services.StoreFromContext(ctx); !ok || store != "Steam" {
		t.Fatalf("unexpected store: %v %v", store, ok)
	}
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStore(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StoreFromContext(ctx); ok {
		t.Fatal("expected no store for blank value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id for blank value")
	}
}
