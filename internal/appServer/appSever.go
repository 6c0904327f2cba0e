// launching the server, worker pool, event producer
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/WB_L3/position/config"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/events"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/faces"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/pool"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/processor"
	"github.com/ds124wfegd/WB_L3/position/internal/service"
	"github.com/ds124wfegd/WB_L3/position/internal/transport"
	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	setupLogging(cfg.Log)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler, imgService, err := buildHandler(cfg)
	if err != nil {
		logrus.Fatalf("error occured while building handlers: %s", err.Error())
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"workers": cfg.Limits.Workers,
		"events":  cfg.Events.Driver,
	}).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	if err := imgService.Close(); err != nil {
		logrus.Errorf("error occured on closing event producer: %s", err.Error())
	}
}

// buildHandler wires processor, pool, producer and routes from cfg.
func buildHandler(cfg *config.Config) (http.Handler, service.ImageService, error) {
	procCfg := processor.Config{
		MaxUploadBytes:  cfg.Limits.MaxUploadBytes,
		MaxPixels:       cfg.Limits.MaxPixels,
		OriginMaxHeight: cfg.Image.OriginMaxHeight,
		CoverWidth:      cfg.Image.CoverWidth,
		CoverHeight:     cfg.Image.CoverHeight,
		JPEGQuality:     cfg.Image.JPEGQuality,
		AutoOrient:      cfg.Image.AutoOrient,
		AttentionEngine: cfg.Image.AttentionEngine,
	}

	if cfg.Image.FaceCascade != "" {
		detector, err := faces.LoadPigoDetector(cfg.Image.FaceCascade, faces.DefaultParams())
		if err != nil {
			return nil, nil, err
		}
		procCfg.Faces = detector
		logrus.WithField("cascade", cfg.Image.FaceCascade).Info("face detection enabled")
	}

	producer := events.NewProducer(events.Config{
		Driver:  cfg.Events.Driver,
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
		AMQPURL: cfg.Events.AMQPURL,
		Queue:   cfg.Events.Queue,
	})

	imgProcessor := processor.NewImageProcessor(procCfg)
	imgService := service.NewImageService(imgProcessor, pool.New(cfg.Limits.Workers), producer)
	imgHandler := transport.NewImageHandler(imgService, cfg.Limits.MaxUploadBytes)

	return transport.InitRoutes(imgHandler, cfg), imgService, nil
}

func setupLogging(cfg config.LogConfig) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return
	}

	// пишем и в stdout, и в файл с ротацией
	logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}))
}
