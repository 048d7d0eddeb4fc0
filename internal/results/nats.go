package results

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

// NewNATS streams run messages to subject.
func NewNATS(nc *nats.Conn, subject string) Sink {
	return &streamSink{
		timeout: 5 * time.Second,
		publish: func(ctx context.Context, body []byte) error {
			if err := nc.Publish(subject, body); err != nil {
				return err
			}
			return nc.FlushWithContext(ctx)
		},
	}
}
