package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docworker/internal/config"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/queue"
)

// WorkerCmd implements the 'worker' command.
type WorkerCmd struct {
	URL     string `name:"nats-url" help:"Override nats.url"`
	Durable string `help:"Override nats.durable"`
}

func (w *WorkerCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if w.URL != "" {
		cfg.NATS.URL = w.URL
	}
	if w.Durable != "" {
		cfg.NATS.Durable = w.Durable
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	app.ServeMetrics(ctx)

	handler := app.Handler()
	consumer, err := queue.Connect(ctx, queue.Config{
		URL:       cfg.NATS.URL,
		Stream:    cfg.NATS.Stream,
		Subject:   cfg.NATS.Subject,
		Durable:   cfg.NATS.Durable,
		FetchWait: cfg.FetchWaitDuration(),
		AckWait:   2*cfg.StageTimeoutDuration() + cfg.FetchWaitDuration(),
	}, func(ctx context.Context, j *job.Job) error {
		_, err := handler.Handle(ctx, j)
		return err
	})
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Close() }()

	slog.Info("Worker started, waiting for jobs")
	if err := consumer.Run(ctx); err != nil {
		return err
	}
	slog.Info("Worker stopped")
	return nil
}
