// Package mailer delivers rendered messages over SMTP, Amazon SES or the log.
package mailer

import (
	"context"
	"fmt"

	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type Result struct {
	MessageID string
}

// Transport sends one message. A returned error means the provider did not
// accept it.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) (*Result, error)
}

func NewTransport(cfg *config.Config, log *zap.SugaredLogger) (Transport, error) {
	switch cfg.Email.Transport {
	case config.EmailTransportSMTP:
		return NewSMTP(cfg.Email.SMTP), nil
	case config.EmailTransportSES:
		return NewSES(context.Background(), cfg.Email.SES)
	case config.EmailTransportLog, "":
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Email.Transport)
	}
}

var Module = fx.Options(
	fx.Provide(NewTransport),
)

// LogTransport writes messages to the logger instead of delivering them.
type LogTransport struct {
	log *zap.SugaredLogger
}

func NewLog(log *zap.SugaredLogger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Name() string { return string(config.EmailTransportLog) }

func (t *LogTransport) Send(ctx context.Context, msg Message) (*Result, error) {
	id := uuid.NewString()
	logctx.FromCtx(ctx, t.log).Infow("email_logged",
		"message_id", id,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"html_len", len(msg.HTML),
		"text_len", len(msg.Text),
	)
	return &Result{MessageID: id}, nil
}
