// Package events picks where transform events go.
package events

import (
	"context"
	"strings"

	"github.com/ds124wfegd/WB_L3/position/internal/pkg/kafka"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/rabbitMQ"
	"github.com/sirupsen/logrus"
)

const (
	DriverNone  = "none"
	DriverKafka = "kafka"
	DriverAMQP  = "amqp"
)

type Producer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
	HealthCheck() error
	Close() error
}

type Config struct {
	Driver  string
	Brokers []string
	Topic   string
	AMQPURL string
	Queue   string
}

// NewProducer never fails: a broker that cannot be reached degrades to logging.
func NewProducer(cfg Config) Producer {
	switch strings.ToLower(cfg.Driver) {
	case DriverKafka:
		if len(cfg.Brokers) == 0 {
			logrus.Warn("events: kafka driver without brokers, events are only logged")
			break
		}
		return kafka.NewProducer(cfg.Brokers, cfg.Topic)
	case DriverAMQP:
		mq, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{URL: cfg.AMQPURL, QueueName: cfg.Queue})
		if err != nil {
			logrus.WithError(err).Warn("events: RabbitMQ unavailable, events are only logged")
			break
		}
		return mq
	case DriverNone, "":
	default:
		logrus.Warnf("events: unknown driver %q, events are only logged", cfg.Driver)
	}
	return kafka.NewLogProducer(cfg.Topic)
}
