package pylog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/embedpy/pye/pyvm"
)

func TestNewLoggerStampsActiveSpan(t *testing.T) {
	SetLevel(slog.LevelInfo)
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	ctx, span := NewSpan(logger, context.Background(), "")
	if span == "" {
		t.Fatal("expected a non-empty span id")
	}

	logger.InfoContext(ctx, "hello")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Fatalf("output missing message: %s", out)
	}
	if !strings.Contains(out, "logs.span="+string(span)) {
		t.Fatalf("output missing span stamp %q: %s", span, out)
	}
}

func TestNewSpanRecordsParentOfChildSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	ctx, parent := NewSpan(logger, context.Background(), "")
	buf.Reset()

	_, child := NewSpan(logger, ctx, "")
	if child == parent {
		t.Fatal("expected a distinct child span id")
	}
	if !strings.Contains(buf.String(), "parent="+string(parent)) {
		t.Fatalf("expected child span creation to log parent=%s: %s", parent, buf.String())
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	SetLevel(slog.LevelInfo)
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Debug("should be filtered")
	if strings.Contains(buf.String(), "should be filtered") {
		t.Fatalf("expected debug line to be filtered at info level: %s", buf.String())
	}

	SetLevel(slog.LevelDebug)
	logger.Debug("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected debug line at debug level: %s", buf.String())
	}
}

func TestWrapSpanJoinsSpanID(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{})
	ctx, span := NewSpan(logger, context.Background(), "")

	base := errors.New("boom")
	wrapped := WrapSpan(ctx, base)
	if wrapped == nil {
		t.Fatal("expected a non-nil wrapped error")
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("expected wrapped error to still satisfy errors.Is against the original")
	}
	if !strings.Contains(wrapped.Error(), string(span)) {
		t.Fatalf("expected wrapped error to mention span %s: %v", span, wrapped)
	}
}

func TestWrapSpanPassesThroughWithoutSpan(t *testing.T) {
	base := errors.New("boom")
	if got := WrapSpan(context.Background(), base); got != base {
		t.Fatalf("expected unchanged error when ctx carries no span, got %v", got)
	}
	if WrapSpan(context.Background(), nil) != nil {
		t.Fatal("expected nil passthrough for nil error")
	}
}

func TestWrapCallPathJoinsFrameNames(t *testing.T) {
	exc := pyvm.NewException(pyvm.ValueError, "bad")
	exc.CallPath = []string{"<module>", "outer", "inner"}

	wrapped := WrapCallPath(exc)
	if !errors.Is(wrapped, exc) {
		t.Fatal("expected wrapped error to still satisfy errors.Is against the exception")
	}
	if !strings.Contains(wrapped.Error(), "outer -> inner") {
		t.Fatalf("expected call path in wrapped error, got %v", wrapped)
	}
}

func TestWrapCallPathPassesThroughWithoutCallPath(t *testing.T) {
	exc := pyvm.NewException(pyvm.ValueError, "bad")
	if got := WrapCallPath(exc); got != exc {
		t.Fatalf("expected unchanged error when no CallPath is set, got %v", got)
	}
	if WrapCallPath(nil) != nil {
		t.Fatal("expected nil passthrough for nil error")
	}

	base := errors.New("boom")
	if got := WrapCallPath(base); got != base {
		t.Fatalf("expected unchanged error for a non-Exception error, got %v", got)
	}
}
