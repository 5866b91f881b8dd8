// Package logger provides structured logging and run metrics for live-events.
//
// Log records go through log/slog, as JSON by default or as text for
// interactive use. Every record can carry arbitrary structured fields:
//
//	logger.Info("Scrape finished", logger.Fields{
//	    "source":     "sansiro-stadium",
//	    "candidates": 12,
//	})
//
//	logger.Error("Batch insert failed", logger.Fields{"events": 4}, err)
//
// Metrics are in-process counters and timings collected during one run and
// reported when the run ends.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Format selects the record encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging on top of slog
type Logger struct {
	slog *slog.Logger
}

var defaultLogger = New(LevelInfo, FormatJSON, os.Stderr)

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level: %q", s)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing records at or above level to output.
func New(level Level, format Format, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if format == FormatText {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}
	return &Logger{slog: slog.New(handler)}
}

// SetDefault sets the package-level logger used by Debug, Info, Warn and Error,
// and installs it as the slog default.
func SetDefault(logger *Logger) {
	defaultLogger = logger
	slog.SetDefault(logger.slog)
}

// Slog exposes the underlying slog.Logger
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	lvl := level.slogLevel()
	ctx := context.Background()
	if !l.slog.Enabled(ctx, lvl) {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(fields)+1)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.slog.LogAttrs(ctx, lvl, message, attrs...)
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}

// Metrics tracks counters and timings for a run. Safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

// TimingStats summarizes the durations recorded under one name
type TimingStats struct {
	Count   int           `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
}

// Snapshot is a point-in-time copy of all metrics
type Snapshot struct {
	Counters map[string]int64       `json:"counters"`
	Timings  map[string]TimingStats `json:"timings"`
}

var defaultMetrics = NewMetrics()

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter increments a counter by 1.
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds delta to a counter.
func (m *Metrics) AddCounter(name string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// RecordTiming records a duration measurement.
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], duration)
}

// Snapshot returns a deep copy of the current metrics with timing statistics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Timings:  make(map[string]TimingStats, len(m.timings)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}

	for name, durations := range m.timings {
		if len(durations) == 0 {
			continue
		}
		stats := TimingStats{Count: len(durations), Min: durations[0], Max: durations[0]}
		for _, d := range durations {
			stats.Total += d
			if d < stats.Min {
				stats.Min = d
			}
			if d > stats.Max {
				stats.Max = d
			}
		}
		stats.Average = stats.Total / time.Duration(len(durations))
		snap.Timings[name] = stats
	}

	return snap
}

// IncrCounter increments a counter on the default metrics tracker.
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// AddCounter adds delta to a counter on the default metrics tracker.
func AddCounter(name string, delta int64) {
	defaultMetrics.AddCounter(name, delta)
}

// RecordTiming records a timing on the default metrics tracker.
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// MetricsSnapshot returns a snapshot of the default tracker.
func MetricsSnapshot() Snapshot {
	return defaultMetrics.Snapshot()
}
