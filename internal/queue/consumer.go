// Package queue consumes push jobs from a NATS JetStream stream.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/logfields"
)

// Config describes the stream and durable consumer.
type Config struct {
	URL     string
	Stream  string
	Subject string
	Durable string
	// FetchWait bounds how long one fetch waits for a message.
	FetchWait time.Duration
	// AckWait is how long JetStream waits for an ack before redelivery.
	AckWait time.Duration
}

// Handler processes one job. A nil error acks the message. A job interrupted
// by shutdown is returned to the stream; any other error terminates it.
type Handler func(ctx context.Context, j *job.Job) error

// message is the part of jetstream.Msg the consumer uses.
type message interface {
	Data() []byte
	Ack() error
	Term() error
	Nak() error
	InProgress() error
}

// Consumer pulls jobs one at a time.
type Consumer struct {
	conn     *nats.Conn
	consumer jetstream.Consumer
	cfg      Config
	handle   Handler
}

// Connect dials NATS and ensures the stream and durable consumer exist.
func Connect(ctx context.Context, cfg Config, handle Handler) (*Consumer, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("docworker"))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "connect to NATS").
			WithContext("url", cfg.URL).
			Retryable().
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "create JetStream context").Build()
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Documentation push jobs",
		Subjects:    []string{cfg.Subject},
		Retention:   jetstream.WorkQueuePolicy,
	})
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "ensure job stream").
			WithContext("stream", cfg.Stream).
			Build()
	}

	ackWait := cfg.AckWait
	if ackWait <= 0 {
		ackWait = 5 * time.Minute
	}
	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.Durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		FilterSubject: cfg.Subject,
		MaxAckPending: 1,
	})
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "ensure durable consumer").
			WithContext("durable", cfg.Durable).
			Build()
	}

	slog.Info("Job consumer ready",
		slog.String("url", cfg.URL),
		slog.String("stream", cfg.Stream),
		slog.String("subject", cfg.Subject),
		slog.String("durable", cfg.Durable))

	return &Consumer{conn: conn, consumer: cons, cfg: cfg, handle: handle}, nil
}

// Run fetches and handles jobs until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	wait := c.cfg.FetchWait
	if wait <= 0 {
		wait = 30 * time.Second
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		batch, err := c.consumer.Fetch(1, jetstream.FetchMaxWait(wait))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, nats.ErrConnectionClosed) {
				return ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch jobs").Build()
			}
			slog.Warn("Fetch failed", logfields.Error(err))
			continue
		}
		for msg := range batch.Messages() {
			c.process(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) && ctx.Err() == nil {
			slog.Warn("Fetch batch ended with error", logfields.Error(err))
		}
	}
}

// process decodes and handles one message. Decoding and handler failures
// terminate the message. Cancellation naks it so another worker picks it up.
func (c *Consumer) process(ctx context.Context, msg message) {
	j, err := job.Decode(msg.Data())
	if err != nil {
		slog.Error("Discarding undecodable job", logfields.Error(err))
		ackOrLog(msg.Term, "term")
		return
	}
	log := slog.With(logfields.JobID(j.ID), logfields.JobTitle(j.Title))
	ackOrLog(msg.InProgress, "in-progress")

	if err := c.handle(ctx, j); err != nil {
		if interrupted(ctx, err) {
			log.Warn("Job interrupted, returning it to the stream", logfields.Error(err))
			ackOrLog(msg.Nak, "nak")
			return
		}
		log.Error("Job failed", logfields.Error(err))
		ackOrLog(msg.Term, "term")
		return
	}
	ackOrLog(msg.Ack, "ack")
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		ferrors.HasCategory(err, ferrors.CategoryCanceled)
}

func ackOrLog(fn func() error, kind string) {
	if err := fn(); err != nil {
		slog.Warn("Failed to acknowledge message", slog.String("kind", kind), logfields.Error(err))
	}
}

// Close drains the connection.
func (c *Consumer) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}
