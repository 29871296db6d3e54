package kafka

import "time"

// Config holds Kafka producer configuration.
type Config struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int
	MaxAttempts  int
}

// DefaultConfig returns a configuration suitable for local development.
func DefaultConfig() Config {
	return Config{
		Brokers:      []string{"localhost:9092"},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: -1, // all in-sync replicas
		MaxAttempts:  3,
	}
}

// Topic names published by the service.
const (
	TopicInventoryEvents = "wms.inventory-ops.events"
)
