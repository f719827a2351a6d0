package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

// initKafka создаёт producer и publisher'ы для outbox, если заданы брокеры.
// Kafka опциональна: без брокеров outbox worker не запускается, а события
// копятся в outbox до следующего запуска с брокерами.
func initKafka(brokersRaw string, logger *log.Entry) (*kafka.Producer, domain.OutboxPublisher, domain.OutboxPublisher) {
	brokersRaw = strings.TrimSpace(brokersRaw)
	if brokersRaw == "" {
		return nil, nil, nil
	}

	brokers := strings.Split(brokersRaw, ",")
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, nil, nil
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	publisher := kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents)
	dlqPublisher := kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)
	return producer, publisher, dlqPublisher
}
