package queue

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
)

// Publisher enqueues job records.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewPublisher connects to NATS for publishing to subject.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("docworker-enqueue"))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "connect to NATS").
			WithContext("url", url).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "create JetStream context").Build()
	}
	return &Publisher{conn: conn, js: js, subject: subject}, nil
}

// Publish enqueues r and returns the stream sequence.
func (p *Publisher) Publish(ctx context.Context, r job.Record) (uint64, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryInternal, "marshal job record").Build()
	}
	var opts []jetstream.PublishOpt
	if r.ID != "" {
		opts = append(opts, jetstream.WithMsgID(r.ID))
	}
	ack, err := p.js.Publish(ctx, p.subject, data, opts...)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryNetwork, "publish job").
			WithContext("subject", p.subject).
			Build()
	}
	return ack.Sequence, nil
}

// Close closes the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
