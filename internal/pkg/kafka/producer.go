package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
	HealthCheck() error
	Close() error
}

const healthDialTimeout = 2 * time.Second

type kafkaProducer struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
}

// NewProducer dials the first broker to make sure the topic exists. When Kafka
// is unreachable the service keeps working with a producer that only logs.
func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logrus.WithField("brokers", brokers).Info("Kafka producer configured")

	// Проверяем подключение и создаем топик
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logrus.WithError(err).Warn("Kafka connection failed, using log-only producer")
		return NewLogProducer(topic)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).Debugf("Could not create topic %s (might already exist)", topic)
	}

	logrus.Infof("Connected to Kafka at %s", brokers[0])
	return &kafkaProducer{writer: writer, brokers: brokers, topic: topic}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: messageBytes,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithError(err).Error("Failed to write message to Kafka")
		return err
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// HealthCheck проверяет, что брокер доступен
func (p *kafkaProducer) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthDialTimeout)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka broker %s unreachable: %w", p.brokers[0], err)
	}
	return conn.Close()
}

// logProducer stands in when no broker is configured or reachable.
type logProducer struct {
	topic string
}

func NewLogProducer(topic string) Producer {
	return &logProducer{topic: topic}
}

func (m *logProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	logrus.WithFields(logrus.Fields{"topic": m.topic, "key": key}).Debugf("event: %+v", message)
	return nil
}

func (m *logProducer) Close() error {
	return nil
}

func (m *logProducer) HealthCheck() error {
	return nil
}
