package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Logger writes one JSON object per line:
//
//	{"timestamp":..,"level":..,"service":..,"action":..,"message":..,"hostname":..,
//	 "request_id":..,"job_id":..,"details":{..},"error":{"msg":..,"stack":..}}
type Logger struct {
	base     *slog.Logger
	hostname string
}

// New creates a structured logger for the given service writing to stdout.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout, slog.LevelDebug)
}

// NewWithWriter creates a structured logger writing to w at the given minimum level.
func NewWithWriter(service string, w io.Writer, level slog.Level) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	}).WithAttrs([]slog.Attr{slog.String("service", service)})

	return &Logger{base: slog.New(handler), hostname: hn}
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.log(ctx, slog.LevelDebug, action, msg, nil, details)
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.log(ctx, slog.LevelInfo, action, msg, nil, details)
}

// Warn writes a WARN line; err may be nil.
func (l *Logger) Warn(ctx context.Context, action, msg string, err error, details any) {
	l.log(ctx, slog.LevelWarn, action, msg, err, details)
}

// Error writes an ERROR line and attaches a short stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.log(ctx, slog.LevelError, action, msg, err, details)
}

func (l *Logger) log(ctx context.Context, level slog.Level, action, msg string, err error, details any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.base.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs,
		slog.String("action", safeAction(action)),
		slog.String("hostname", l.hostname),
	)
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if id := JobID(ctx); id != "" {
		attrs = append(attrs, slog.String("job_id", id))
	}
	if details != nil {
		attrs = append(attrs, slog.Any("details", details))
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error",
			slog.String("msg", strings.TrimSpace(err.Error())),
			slog.String("stack", shortStack(4, 8)),
		))
	}

	l.base.LogAttrs(ctx, level, strings.TrimSpace(msg), attrs...)
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "gogogo_request_id"
	ctxKeyJobID     ctxKey = "gogogo_job_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	if strings.TrimSpace(reqID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, reqID)
}

// WithJobID returns a new context carrying job_id.
func (l *Logger) WithJobID(ctx context.Context, jobID string) context.Context {
	if strings.TrimSpace(jobID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyJobID, jobID)
}

// RequestID extracts request_id from ctx (if any).
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(ctxKeyRequestID).(string)
	return s
}

// JobID extracts job_id from ctx (if any).
func JobID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(ctxKeyJobID).(string)
	return s
}

// ----- Small utilities -----

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}

// shortStack renders at most max caller frames, skipping runtime and logger frames.
func shortStack(skip, max int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	count := 0
	for {
		f, more := frames.Next()
		fn := f.Function
		if strings.HasPrefix(fn, "runtime.") || strings.Contains(fn, "/logger.") {
			if !more {
				break
			}
			continue
		}
		if i := strings.LastIndex(fn, "."); i >= 0 && i+1 < len(fn) {
			fn = fn[i+1:]
		}
		fmt.Fprintf(&b, "%s %s:%d\n", fn, filepath.Base(f.File), f.Line)
		count++
		if count >= max || !more {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
