// Package notify publishes migration run summaries to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/retry"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitemigrator.runs"

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the message published once per run.
type Event struct {
	models.Summary
	Source    string    `json:"source"`
	Dest      string    `json:"dest"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier sends run summaries to one subject.
type Notifier struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
	policy  retry.Policy
}

// New wraps an existing publisher. Publishing is attempted once until
// WithRetry is called.
func New(pub Publisher, subject string, logger *slog.Logger) *Notifier {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, subject: subject, logger: logger, policy: retry.Policy{Mode: retry.Fixed}}
}

// WithRetry retries failed publishes according to p.
func (n *Notifier) WithRetry(p retry.Policy) *Notifier {
	n.policy = p
	return n
}

// Connect dials the NATS server at url.
func Connect(url, subject string, logger *slog.Logger) (*Notifier, error) {
	conn, err := nats.Connect(url, nats.Name("sitemigrator"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, errors.ConfigError("connect to NATS").WithCause(err).WithContext("url", url).Build()
	}
	n := New(conn, subject, logger)
	n.conn = conn
	n.logger.Debug("NATS notifier connected", slog.String("url", url), slog.String("subject", n.subject))
	return n, nil
}

// Notify publishes the summary of res. runErr, when set, is reported as the
// failure cause.
func (n *Notifier) Notify(ctx context.Context, opts models.Options, res *models.Result, runErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := Event{Summary: res.Summary(), Source: opts.SourceDir, Dest: opts.DestDir, Timestamp: time.Now().UTC()}
	if runErr != nil {
		ev.Failure = runErr.Error()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.InternalError("marshal run event").WithCause(err).Build()
	}
	attempts := 0
	err = n.policy.Do(ctx, func() error {
		attempts++
		return n.pub.Publish(n.subject, data)
	})
	if err != nil {
		return errors.WriteError(err, "publish run event").WithContext("subject", n.subject).WithContext("attempts", attempts).Build()
	}
	n.logger.Debug("published run event", logfields.RunID(res.RunID), slog.String("subject", n.subject))
	return nil
}

// Close flushes pending messages and closes a connection opened by Connect.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	err := n.conn.FlushTimeout(2 * time.Second)
	n.conn.Close()
	return err
}
