package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher delivers a sent bulletin to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, b *Bulletin) error
}

type NATSPublisher struct {
	publish    func(subject string, data []byte) error
	subject    string
	maxRetries int
	backoff    time.Duration
}

func NewNATSPublisher(conn *nats.Conn, subject string, maxRetries int) *NATSPublisher {
	return &NATSPublisher{
		publish:    conn.Publish,
		subject:    subject,
		maxRetries: maxRetries,
		backoff:    100 * time.Millisecond,
	}
}

func (p *NATSPublisher) Publish(ctx context.Context, b *Bulletin) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		err = p.publish(p.subject, data)
		if err == nil {
			return nil
		}

		// Linear backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * p.backoff):
		}
	}

	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}
