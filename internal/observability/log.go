// Package observability carries the logger and run metrics of phyloadj.
//
// Loggers are passed through context.Context so the reconstruction core can
// narrate progress without a global; metrics are collected in a private
// Prometheus registry and written out as a textfile at the end of a run.
package observability

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Creates a logger writing to w at the given level, with timestamps formatted
// as "HH:MM:SS.ms".
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Progress tracks the start time of an operation and logs completion with the
// elapsed duration.
type Progress struct {
	logger *log.Logger
	start  time.Time
}

func NewProgress(l *log.Logger) *Progress {
	return &Progress{logger: l, start: time.Now()}
}

// Logs msg with the elapsed time, e.g. "done. (1.234s)"
func (p *Progress) Done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Returns the logger attached to ctx, or log.Default() when there is none
func LoggerFrom(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
