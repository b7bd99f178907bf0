package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core)

	l.Warn("index", "search failed", map[string]interface{}{
		"error": errors.New("boom"),
		"query": "reset password",
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["module"] != "index" {
		t.Errorf("expected module field, got %v", ctx["module"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("expected error field, got %v", ctx["error"])
	}
	details, ok := ctx["details"].(map[string]interface{})
	if !ok || details["query"] != "reset password" {
		t.Errorf("expected details with query, got %v", ctx["details"])
	}
	if _, dup := details["error"]; dup {
		t.Error("error should not be repeated in details")
	}
}

func TestZapLogger_NilDetails(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewWithCore(core)

	l.Info("server", "started", nil)
	l.Debug("server", "filtered", nil)

	if logs.Len() != 1 {
		t.Fatalf("expected only the info entry, got %d", logs.Len())
	}
	if _, ok := logs.All()[0].ContextMap()["details"]; ok {
		t.Error("empty details should be omitted")
	}
}

func TestZapLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "support.log")
	l := NewZapLogger(Options{FilePath: path, Level: "debug"})

	l.Error("ingest", "file skipped", map[string]interface{}{"file": "broken.pdf"})
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"module":"ingest"`) || !strings.Contains(string(data), "broken.pdf") {
		t.Errorf("unexpected log file content: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("DEBUG") != zap.DebugLevel || parseLevel("warning") != zap.WarnLevel || parseLevel("") != zap.InfoLevel {
		t.Error("unexpected level parsing")
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x", "y", nil)
	if err := l.Sync(); err != nil {
		t.Error(err)
	}
}
