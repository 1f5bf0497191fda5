// Package eventbus mirrors submission transitions onto NATS
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/promptly/client/internal/orchestrator"
	"go.uber.org/zap"
)

// SubjectPrefix is prepended to the state kind, e.g. "promptly.submission.success"
const SubjectPrefix = "promptly.submission"

// Bus publishes and consumes state transitions
type Bus struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials the NATS server at url
func Connect(url string, logger *zap.Logger) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name("promptly"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Bus{conn: nc, logger: logger}, nil
}

// Subject returns the subject a state is published on
func Subject(kind orchestrator.Kind) string {
	return SubjectPrefix + "." + string(kind)
}

// Publish sends st on its subject. It is registered as an orchestrator
// listener, so failures are logged rather than returned.
func (b *Bus) Publish(st orchestrator.State) {
	data, err := json.Marshal(st)
	if err != nil {
		b.logger.Error("failed to encode state", zap.Error(err))
		return
	}
	if err := b.conn.Publish(Subject(st.Kind), data); err != nil {
		b.logger.Warn("failed to publish state",
			zap.Uint64("submission_id", st.SubmissionID),
			zap.String("kind", string(st.Kind)),
			zap.Error(err),
		)
	}
}

// Watch delivers every published transition to fn until ctx is done
func (b *Bus) Watch(ctx context.Context, fn func(orchestrator.State)) error {
	sub, err := b.conn.Subscribe(SubjectPrefix+".*", func(msg *nats.Msg) {
		st, err := Decode(msg.Data)
		if err != nil {
			b.logger.Warn("dropping malformed transition", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		fn(st)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}

// Decode parses a published transition
func Decode(data []byte) (orchestrator.State, error) {
	var st orchestrator.State
	if err := json.Unmarshal(data, &st); err != nil {
		return orchestrator.State{}, err
	}
	if st.Kind == "" {
		return orchestrator.State{}, fmt.Errorf("missing state kind")
	}
	return st, nil
}

// Close drains pending publishes and closes the connection
func (b *Bus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}
