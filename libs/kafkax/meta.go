package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

// EventMeta is the canonical metadata carried on Kafka messages across services.
type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta reads the event_id/event_type headers. EventID stays empty
// when the producer did not set the header: message keys identify aggregates,
// not deliveries, so they must never stand in as an event id.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventType := HeaderValue(msg.Headers, "event_type")
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{
		EventID:   HeaderValue(msg.Headers, "event_id"),
		EventType: eventType,
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
