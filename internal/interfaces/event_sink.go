package interfaces

import "go-reliable-fetch/internal/models"

//go:generate mockgen -package=mock -source=event_sink.go -destination=mock/event_sink.go

// EventSink receives formatted log lines and stats from the fetch pipeline
type EventSink interface {
	Log(level models.Level, message string, meta map[string]interface{})
	Stat(kind models.StatKind, name string, value float64)
}
