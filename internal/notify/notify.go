// Package notify announces finished runs to other systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/report"
)

// Notifier publishes run reports.
type Notifier interface {
	Notify(ctx context.Context, r *report.Report) error
	Close() error
}

// Noop discards reports.
type Noop struct{}

func (Noop) Notify(context.Context, *report.Report) error { return nil }
func (Noop) Close() error                                 { return nil }

// Message is the payload published for each run.
type Message struct {
	Event  string         `json:"event"`
	Host   string         `json:"host,omitempty"`
	Failed int            `json:"failed"`
	Report *report.Report `json:"report"`
}

const EventRunCompleted = "run.completed"

// publisher is the subset of *nats.Conn used for notifications.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSNotifier publishes JSON messages on a core NATS subject.
type NATSNotifier struct {
	pub     publisher
	closeFn func()
	subject string
	host    string
}

// NewNATSNotifier connects to url and publishes on subject.
func NewNATSNotifier(url, subject string, opts ...nats.Option) (*NATSNotifier, error) {
	opts = append([]nats.Option{nats.Name("docsync"), nats.Timeout(5 * time.Second)}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", logfields.URL(url), slog.String("subject", subject))
	return newNATSNotifier(conn, conn.Close, subject), nil
}

func newNATSNotifier(pub publisher, closeFn func(), subject string) *NATSNotifier {
	host, _ := os.Hostname()
	return &NATSNotifier{pub: pub, closeFn: closeFn, subject: subject, host: host}
}

// Notify publishes r and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, r *report.Report) error {
	data, err := json.Marshal(Message{
		Event:  EventRunCompleted,
		Host:   n.host,
		Failed: len(r.Failed()),
		Report: r,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := n.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	slog.Debug("Published run report", logfields.RunID(r.RunID), slog.String("subject", n.subject))
	return nil
}

func (n *NATSNotifier) Close() error {
	if n.closeFn != nil {
		n.closeFn()
	}
	return nil
}
