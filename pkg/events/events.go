package events

import "time"

// Event is delivered to subscribers in publish order for each topic.
type Event struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	Data      any
}

type Handler func(Event)

type Subscription interface {
	Unsubscribe()
}

type Stats struct {
	Subscribers map[string]int `json:"subscribers"`
	QueueLen    int            `json:"queue-length"`
	QueueCap    int            `json:"queue-capacity"`
	Published   uint64         `json:"published"`
	Dropped     uint64         `json:"dropped"`
	DebugTopics []string       `json:"debug-topics,omitempty"`
}

type Bus interface {
	Publish(topic string, event Event)
	Subscribe(topic string, handler Handler) Subscription
	Stats() Stats
	// SetDebugTopics logs every event published on the given topics.
	// An empty list turns debug logging off.
	SetDebugTopics(topics []string)
	Close() error
}
