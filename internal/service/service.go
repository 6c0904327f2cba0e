package service

import (
	"context"
	"sync"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/events"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/pool"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/processor"
)

type ImageService interface {
	Transform(ctx context.Context, req entity.TransformRequest) (*entity.EncodedResult, error)
	HealthCheck() error
	Close() error
}

type imageService struct {
	processor processor.ImageProcessor
	pool      *pool.Pool
	producer  events.Producer
	inflight  sync.WaitGroup
}

func NewImageService(processor processor.ImageProcessor, workers *pool.Pool, producer events.Producer) ImageService {
	return &imageService{
		processor: processor,
		pool:      workers,
		producer:  producer,
	}
}
