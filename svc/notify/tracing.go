package notify

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/dmitrymomot/arnsnotify/svc/notify"

var tracer = otel.Tracer(tracerName)

func eventAttrs(e Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("event.type", string(e.EventType)),
		attribute.Int64("event.nonce", e.Nonce),
	}
}
