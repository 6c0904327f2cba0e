package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// StartTransformEventConsumer reads transform events and logs them until ctx is done.
func StartTransformEventConsumer(ctx context.Context, brokers []string, topic, groupID string) error {

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic}).Info("Transform event consumer started")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logrus.WithError(err).Error("Error reading message from Kafka")
			continue
		}

		event, err := DecodeTransformEvent(msg.Value)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to parse event at offset %d", msg.Offset)
			continue
		}

		entry := logrus.WithFields(logrus.Fields{
			"request_id":  event.RequestID,
			"position":    event.Position,
			"duration_ms": event.DurationMs,
			"partition":   msg.Partition,
			"offset":      msg.Offset,
		})
		if event.ErrorKind != "" {
			entry.WithField("error_kind", event.ErrorKind).Warn("transform failed")
		} else {
			entry.WithFields(logrus.Fields{
				"output":       event.OutputBytes,
				"output_width": event.OutputWidth,
			}).Info("transform completed")
		}
	}
}

func DecodeTransformEvent(data []byte) (entity.TransformEvent, error) {
	var event entity.TransformEvent
	err := json.Unmarshal(data, &event)
	return event, err
}
