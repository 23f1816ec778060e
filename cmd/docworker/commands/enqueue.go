package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docworker/internal/config"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/queue"
)

// EnqueueCmd implements the 'enqueue' command.
type EnqueueCmd struct {
	JobSource `embed:""`
	URL       string `name:"nats-url" help:"Override nats.url"`
}

func (e *EnqueueCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if e.URL != "" {
		cfg.NATS.URL = e.URL
	}
	j, err := e.Load(cfg.Forge.WebhookSecret)
	if err != nil {
		return err
	}

	pub, err := queue.NewPublisher(cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		return err
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	seq, err := pub.Publish(ctx, job.Record{ID: j.ID, Title: j.Title, Payload: j.Payload, CreatedAt: j.CreatedAt})
	if err != nil {
		return err
	}
	fmt.Printf("enqueued job %s (sequence %d)\n", j.ID, seq)
	return nil
}
