package events

import (
	"go.uber.org/zap"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/metrics"
	"go-reliable-fetch/internal/models"
)

var (
	_ interfaces.EventSink = NopSink{}
	_ interfaces.EventSink = (*ZapSink)(nil)
	_ interfaces.EventSink = PrometheusSink{}
	_ interfaces.EventSink = MultiSink(nil)
)

// NopSink discards everything
type NopSink struct{}

func (NopSink) Log(models.Level, string, map[string]interface{}) {}
func (NopSink) Stat(models.StatKind, string, float64)            {}

// ZapSink writes log lines to a zap logger and stats at debug level
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Log(level models.Level, message string, meta map[string]interface{}) {
	fields := make([]zap.Field, 0, len(meta))
	for k, v := range meta {
		fields = append(fields, zap.Any(k, v))
	}

	switch level {
	case models.LevelError:
		s.logger.Error(message, fields...)
	case models.LevelWarn:
		s.logger.Warn(message, fields...)
	case models.LevelInfo:
		s.logger.Info(message, fields...)
	default:
		s.logger.Debug(message, fields...)
	}
}

func (s *ZapSink) Stat(kind models.StatKind, name string, value float64) {
	s.logger.Debug("stat",
		zap.String("kind", string(kind)),
		zap.String("name", name),
		zap.Float64("value", value))
}

// PrometheusSink turns stats into prometheus series and ignores log lines
type PrometheusSink struct{}

func (PrometheusSink) Log(models.Level, string, map[string]interface{}) {}

func (PrometheusSink) Stat(kind models.StatKind, name string, value float64) {
	if kind == models.StatTiming {
		metrics.RecordFetchTiming(name, value)
		return
	}
	metrics.RecordFetchStat(name, value)
}

// MultiSink fans out to several sinks in order
type MultiSink []interfaces.EventSink

func (m MultiSink) Log(level models.Level, message string, meta map[string]interface{}) {
	for _, s := range m {
		s.Log(level, message, meta)
	}
}

func (m MultiSink) Stat(kind models.StatKind, name string, value float64) {
	for _, s := range m {
		s.Stat(kind, name, value)
	}
}
