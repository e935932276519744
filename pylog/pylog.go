// Package pylog is the structured-logging surface, adapted from the
// teacher's logs package: a slog.Handler that stamps the active span onto
// every record, fanned out to a terminal handler and (when running under
// systemd) the journal. The teacher wires this through a dependency-
// injection Module; that framework wasn't carried into this module (see
// DESIGN.md's dropped-dependencies entry for dscope), so construction here
// is a plain constructor function instead of an injected Module method —
// the logging behavior itself (handler composition, span stamping) is
// unchanged.
package pylog

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"

	"github.com/embedpy/pye/pyvm"
)

var level = new(slog.LevelVar)

// SetLevel adjusts the shared level var; cmd/pye's -log-debug/-log-info
// commands call this the way the teacher's cmds.Define hooks did.
func SetLevel(l slog.Level) { level.Set(l) }

type Span string

type spanKeyType struct{}

var spanKey spanKeyType

// handler stamps the active span (if any) onto every record before
// delegating to the fanned-out terminal/journal handlers.
type handler struct {
	slog.Handler
}

func (h *handler) Handle(ctx context.Context, record slog.Record) error {
	if v := ctx.Value(spanKey); v != nil {
		record.Add("logs.span", v.(Span))
	}
	return h.Handler.Handle(ctx, record)
}

// NewLogger builds the engine's default logger: a text handler to w (unless
// running as a systemd service, where the terminal handler is dropped) fanned
// out with the systemd journal handler when available.
func NewLogger(w io.Writer) *slog.Logger {
	var handlers []slog.Handler

	isSystemdService := false
	if cgroupPath, err := getCgroupPath(); err == nil {
		isSystemdService = strings.HasSuffix(path.Dir(cgroupPath), ".service")
	}

	var terminalHandler slog.Handler
	if !isSystemdService {
		terminalHandler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
		handlers = append(handlers, terminalHandler)
	}

	journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
		ReplaceGroup: toJournalKey,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	})
	if err != nil {
		if terminalHandler != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.Add("error", err)
			_ = terminalHandler.Handle(context.Background(), record)
		}
	} else {
		handlers = append(handlers, journalHandler)
	}

	return slog.New(&handler{Handler: slogmulti.Fanout(handlers...)})
}

func toJournalKey(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, s)
}

func getCgroupPath() (string, error) {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return "", err
	}
	parts := strings.Split(string(content), ":")
	if len(parts) >= 3 {
		return parts[2], nil
	}
	return "", nil
}

// NewSpan opens a child span under ctx's current span (if any), logging its
// creation, and returns the context carrying it plus the span id itself —
// used to correlate one script Eval's log lines end to end.
func NewSpan(logger *slog.Logger, ctx context.Context, parent Span) (context.Context, Span) {
	var creatorSpan Span
	if v := ctx.Value(spanKey); v != nil {
		creatorSpan = v.(Span)
	}
	if parent == "" {
		parent = creatorSpan
	}

	span := Span(rand.Text())
	ctx = context.WithValue(ctx, spanKey, span)

	var args []any
	if creatorSpan != "" && creatorSpan != parent {
		args = append(args, "creator", creatorSpan)
	}
	if parent != "" {
		args = append(args, "parent", parent)
	}
	logger.InfoContext(ctx, "new span", args...)

	return ctx, span
}

// WrapSpan annotates err with the active span id, if any, so a returned
// *pyvm.Exception surfaced at the top level carries its originating span.
func WrapSpan(ctx context.Context, err error) error {
	v := ctx.Value(spanKey)
	if v == nil || err == nil {
		return err
	}
	return errors.Join(err, fmt.Errorf("span: %s", v.(Span)))
}

// WrapCallPath annotates err with the script call stack active when it
// faulted, when err wraps a *pyvm.Exception carrying one — the domain
// counterpart to WrapSpan (host-level correlation id) for surfacing where
// inside the running script a fault actually occurred.
func WrapCallPath(err error) error {
	if err == nil {
		return err
	}
	var exc *pyvm.Exception
	if !errors.As(err, &exc) || len(exc.CallPath) == 0 {
		return err
	}
	return errors.Join(err, fmt.Errorf("call path: %s", strings.Join(exc.CallPath, " -> ")))
}
