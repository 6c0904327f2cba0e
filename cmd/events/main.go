// reads transform events from Kafka and writes them to the log
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/WB_L3/position/config"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kafka.StartTransformEventConsumer(ctx, cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.GroupID); err != nil {
		logrus.Fatalf("event consumer stopped: %s", err.Error())
	}
}
