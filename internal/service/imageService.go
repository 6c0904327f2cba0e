package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

func (s *imageService) Transform(ctx context.Context, req entity.TransformRequest) (*entity.EncodedResult, error) {
	start := time.Now()

	var result *entity.EncodedResult
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.processor.Process(ctx, req.Image, req.Mode)
		return err
	})

	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", entity.ErrTimeout, err)
	}

	s.publish(req, result, err, time.Since(start))

	if err != nil {
		return nil, err
	}
	return result, nil
}

// publish отправляет событие асинхронно, ответ клиенту не ждет брокера
func (s *imageService) publish(req entity.TransformRequest, result *entity.EncodedResult, err error, took time.Duration) {
	if s.producer == nil {
		return
	}

	event := entity.TransformEvent{
		RequestID:   req.RequestID,
		Position:    req.Mode.String(),
		SourceBytes: len(req.Image),
		DurationMs:  took.Milliseconds(),
		Time:        time.Now().UTC(),
	}
	if err != nil {
		event.ErrorKind = string(entity.KindOf(err))
	} else {
		event.OutputBytes = len(result.Bytes)
		event.OutputWidth = result.Width
		event.OutputHeight = result.Height
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.producer.SendMessage(ctx, event.RequestID, event); err != nil {
			logrus.WithError(err).WithField("request_id", event.RequestID).Warn("failed to publish transform event")
		}
	}()
}

// HealthCheck reports whether transform events can reach their destination.
func (s *imageService) HealthCheck() error {
	if s.producer == nil {
		return nil
	}
	return s.producer.HealthCheck()
}

// Close waits for pending events and releases the producer.
func (s *imageService) Close() error {
	s.inflight.Wait()
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}
