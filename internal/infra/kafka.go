// README: Kafka writer initialization for domain events.
package infra

import (
	"time"

	"github.com/segmentio/kafka-go"

	"benne/internal/config"
)

// NewKafkaWriter does not dial; connections are opened on the first write.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
}
