package events

import (
	"fmt"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
)

// Observer receives every raw event after the sink has been fed
type Observer interface {
	OnEvent(ev models.Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ev models.Event)

func (f ObserverFunc) OnEvent(ev models.Event) { f(ev) }

// Emitter formats pipeline events into log lines and stats for a sink
type Emitter struct {
	sink      interfaces.EventSink
	observers []Observer
}

// NewEmitter creates an emitter. A nil sink discards everything.
func NewEmitter(sink interfaces.EventSink, observers ...Observer) *Emitter {
	if sink == nil {
		sink = NopSink{}
	}
	return &Emitter{sink: sink, observers: observers}
}

// Emit formats ev and hands it to the sink and observers
func (e *Emitter) Emit(ev models.Event) {
	level, message, stat := describe(ev)

	e.sink.Log(level, message, meta(ev))
	if stat != "" {
		name := ev.StatsdKey + "." + stat
		if ev.Kind == models.EventLogEnd {
			e.sink.Stat(models.StatTiming, name, float64(ev.Timing.Milliseconds()))
		} else {
			e.sink.Stat(models.StatIncrement, name, 1)
		}
	}

	for _, o := range e.observers {
		o.OnEvent(ev)
	}
}

func describe(ev models.Event) (models.Level, string, string) {
	switch ev.Kind {
	case models.EventCacheHit:
		return models.LevelDebug, "CACHE HIT for key: " + ev.Key, "cacheHit"
	case models.EventCacheMiss:
		return models.LevelDebug, "CACHE MISS for key: " + ev.Key, "cacheMiss"
	case models.EventCacheSet:
		return models.LevelDebug, fmt.Sprintf("CACHE SET for key: %s @ TTL: %d", ev.Key, ev.TTL.Milliseconds()), "cacheSet"
	case models.EventCacheError:
		return models.LevelWarn, fmt.Sprintf("CACHE ERROR for key: %s: %v", ev.Key, ev.Err), "cacheError"
	case models.EventDedupeQueue:
		return models.LevelDebug, "DEDUPE for key: " + ev.Key, "dedupe"
	case models.EventFallbackCacheHit:
		return models.LevelWarn, "FALLBACK CACHE HIT for key: " + ev.Key, "fallbackHit"
	case models.EventFallbackCacheMiss:
		return models.LevelWarn, "FALLBACK CACHE MISS for key: " + ev.Key, "fallbackMiss"
	case models.EventLogStart:
		return models.LevelDebug, "START " + ev.URL, "requests"
	case models.EventLogEnd:
		return models.LevelForStatus(ev.StatusCode), "OK " + ev.URL, "responseTime"
	case models.EventLogError:
		level := models.LevelError
		if ev.StatusCode > 0 {
			level = models.LevelForStatus(ev.StatusCode)
		}
		return level, fmt.Sprintf("FAIL %s: %v", ev.URL, ev.Err), "error"
	default:
		return models.LevelDebug, string(ev.Kind), ""
	}
}

func meta(ev models.Event) map[string]interface{} {
	m := map[string]interface{}{
		"event": string(ev.Kind),
	}
	if ev.Tracer != "" {
		m["tracer"] = ev.Tracer
	}
	if ev.Type != "" {
		m["type"] = ev.Type
	}
	if ev.URL != "" {
		m["url"] = ev.URL
	}
	if ev.StatusCode != 0 {
		m["statusCode"] = ev.StatusCode
	}
	if ev.Timing > 0 {
		m["responseTime"] = ev.Timing.Milliseconds()
	}
	return m
}
