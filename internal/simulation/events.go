package simulation

import (
	"context"
	"log/slog"

	"clmm-backtest/internal/domain"
)

// EventKind names a diagnostic event emitted by the driver.
type EventKind string

// Event kinds.
const (
	EventAllocated         EventKind = "allocated"
	EventFeesAccrued       EventKind = "fees_accrued"
	EventVolatilityChecked EventKind = "volatility_checked"
	EventReset             EventKind = "reset"
)

// Event is a structured diagnostic record pushed by the driver.
// Fields not relevant to Kind are zero.
type Event struct {
	Kind        EventKind
	TimestampMs int64
	Price       float64

	Amount0 float64 // allocated / reset: inventory deployed
	Amount1 float64
	Fee0    float64 // fees_accrued: fees earned this step
	Fee1    float64
	Swaps   int // fees_accrued: swaps in the step window

	Forecast     domain.Forecast // allocated / volatility_checked
	ReferenceStd float64         // volatility_checked: std at last reset
	Triggers     domain.ResetTrigger
}

// EventSink receives driver events. Emit must not block for long; it is
// called synchronously from the simulation loop.
type EventSink interface {
	Emit(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

// Emit forwards e to every sink.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Discard drops every event.
var Discard EventSink = SinkFunc(func(Event) {})

// LogSink writes events as slog records: resets at info, everything else at debug.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging to logger (slog.Default when nil).
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Emit logs e.
func (s *LogSink) Emit(e Event) {
	attrs := []slog.Attr{
		slog.Int64("ts", e.TimestampMs),
		slog.Float64("price", e.Price),
	}
	level := slog.LevelDebug

	switch e.Kind {
	case EventAllocated:
		attrs = append(attrs,
			slog.Float64("amount0", e.Amount0),
			slog.Float64("amount1", e.Amount1),
			slog.Float64("mean", e.Forecast.Mean),
			slog.Float64("std", e.Forecast.StdDev()),
		)
	case EventFeesAccrued:
		attrs = append(attrs,
			slog.Int("swaps", e.Swaps),
			slog.Float64("fee0", e.Fee0),
			slog.Float64("fee1", e.Fee1),
		)
	case EventVolatilityChecked:
		attrs = append(attrs,
			slog.Float64("std", e.Forecast.StdDev()),
			slog.Float64("reference_std", e.ReferenceStd),
		)
	case EventReset:
		level = slog.LevelInfo
		attrs = append(attrs,
			slog.String("triggers", e.Triggers.String()),
			slog.Float64("amount0", e.Amount0),
			slog.Float64("amount1", e.Amount1),
		)
	}

	s.logger.LogAttrs(context.Background(), level, string(e.Kind), attrs...)
}
