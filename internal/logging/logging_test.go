package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level       string
		debugOn     bool
		infoEnabled bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"", false, true}, // default is info
	}

	for _, tt := range tests {
		logger := New(tt.level, "text")
		if logger == nil {
			t.Fatalf("New(%q) returned nil", tt.level)
		}
		ctx := context.Background()
		if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debugOn {
			t.Errorf("level %q: debug enabled = %v, want %v", tt.level, got, tt.debugOn)
		}
		if got := logger.Enabled(ctx, slog.LevelInfo); got != tt.infoEnabled {
			t.Errorf("level %q: info enabled = %v, want %v", tt.level, got, tt.infoEnabled)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	if New("info", "json") == nil {
		t.Fatal("expected non-nil logger for JSON format")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := RequestID(ctx); id != "" {
		t.Errorf("expected empty request ID, got %q", id)
	}

	ctx = WithRequestID(ctx, "req-123")
	if id := RequestID(ctx); id != "req-123" {
		t.Errorf("expected req-123, got %q", id)
	}

	ctx = WithRequestID(ctx, "req-456")
	if id := RequestID(ctx); id != "req-456" {
		t.Errorf("expected req-456 after overwrite, got %q", id)
	}
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) == nil {
		t.Fatal("expected default logger")
	}

	custom := New("debug", "json")
	ctx = WithLogger(ctx, custom)
	if FromContext(ctx) != custom {
		t.Error("expected custom logger from context")
	}
}

func TestL(t *testing.T) {
	ctx := WithLogger(context.Background(), New("info", "text"))
	if L(ctx) == nil {
		t.Fatal("expected non-nil logger from L()")
	}
	ctx = WithRequestID(ctx, "req-789")
	if L(ctx) == nil {
		t.Fatal("expected non-nil logger from L() with request ID")
	}
}
