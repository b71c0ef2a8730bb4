package obs

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLoggerRestores(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := SetLogger(zap.New(core))

	Logger().Info("request_complete", zap.String("request_id", "r-1"))
	restore()

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "request_complete" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if entry.ContextMap()["request_id"] != "r-1" {
		t.Fatalf("missing request_id field: %v", entry.ContextMap())
	}

	Logger().Info("after restore")
	if logs.Len() != 1 {
		t.Fatalf("restored logger still writes to observer")
	}
}

func TestNewLoggerUnknownLevelFallsBack(t *testing.T) {
	l, err := NewLogger("chatty")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !l.Core().Enabled(zap.InfoLevel) || l.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("expected info level fallback")
	}
}
