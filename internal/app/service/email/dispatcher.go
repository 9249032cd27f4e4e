// Package email renders and sends receipts. Each order gets at most one
// recorded receipt attempt.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/platform/mailer"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/metrics"
	"github.com/fatflowers/patron/pkg/types"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Result struct {
	EmailSendID uint
	Status      types.EmailSendStatus
	Source      types.EmailSource
	ErrorCode   string
	// Skipped is set when the order already had a receipt attempt.
	Skipped bool
}

func (r *Result) OK() bool { return r.Status == types.EmailSendStatusSent }

type Dispatcher struct {
	repo      repository.Repository
	transport mailer.Transport
	from      string
	timeout   time.Duration
	biz       *metrics.Business
	log       *zap.SugaredLogger
	now       func() time.Time
}

const defaultSendTimeout = 10 * time.Second

func NewDispatcher(repo repository.Repository, transport mailer.Transport, cfg *config.Config, biz *metrics.Business, log *zap.SugaredLogger) *Dispatcher {
	timeout := cfg.Email.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		repo:      repo,
		transport: transport,
		from:      cfg.Email.From,
		timeout:   timeout,
		biz:       biz,
		log:       log,
		now:       time.Now,
	}
}

var Module = fx.Options(
	fx.Provide(NewDispatcher),
)

// SendReceipt sends the receipt for order using template slug. toEmail may
// be blank, in which case the order's contact email is used. A failed send
// is reported in the result; the error return is for store failures only.
func (d *Dispatcher) SendReceipt(ctx context.Context, order *models.Order, toEmail, slug string, params Params) (*Result, error) {
	log := logctx.FromCtx(ctx, d.log).With("order_id", order.ID, "template_slug", slug)

	current, err := d.repo.FindOrderByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	if current.ReceiptEmailSendID != nil {
		return d.existing(ctx, *current.ReceiptEmailSendID)
	}

	send := &models.EmailSend{
		TemplateSlug: slug,
		ContactID:    order.ContactID,
		OrderID:      lo.ToPtr(order.ID),
	}

	to, err := d.recipient(ctx, order, toEmail)
	if err != nil {
		return nil, err
	}
	if to == "" {
		send.Source = types.EmailSourceUnknown
		send.Status = types.EmailSendStatusFailed
		send.ErrorCode = lo.ToPtr(types.EmailErrorMissingRecipient)
		if err := d.repo.CreateEmailSend(ctx, send); err != nil {
			return nil, fmt.Errorf("failed to record email send: %w", err)
		}
		log.Warnw("receipt_missing_recipient", "email_send_id", send.ID)
		return d.finish(ctx, order, send)
	}
	send.ToEmail = to

	c, err := d.resolveContent(ctx, send, slug, params)
	if err != nil {
		return nil, err
	}
	send.Subject = c.Subject
	send.Status = types.EmailSendStatusQueued
	if err := d.repo.CreateEmailSend(ctx, send); err != nil {
		return nil, fmt.Errorf("failed to record email send: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	res, sendErr := d.transport.Send(sendCtx, mailer.Message{
		From:    d.from,
		To:      to,
		Subject: c.Subject,
		HTML:    c.HTML,
		Text:    c.Text,
	})
	cancel()

	if sendErr != nil {
		send.Status = types.EmailSendStatusFailed
		send.ErrorCode = lo.ToPtr(types.EmailErrorProviderFailed)
		log.Errorw("receipt_send_failed", "email_send_id", send.ID, "transport", d.transport.Name(), "error", sendErr)
	} else {
		send.Status = types.EmailSendStatusSent
		send.SentAt = lo.ToPtr(d.now())
		if res != nil && res.MessageID != "" {
			send.ProviderMessageID = lo.ToPtr(res.MessageID)
		}
		log.Infow("receipt_sent", "email_send_id", send.ID, "source", send.Source)
	}
	if err := d.repo.SaveEmailSend(ctx, send); err != nil {
		return nil, fmt.Errorf("failed to update email send: %w", err)
	}
	return d.finish(ctx, order, send)
}

func (d *Dispatcher) recipient(ctx context.Context, order *models.Order, toEmail string) (string, error) {
	if to := strings.TrimSpace(toEmail); to != "" {
		return to, nil
	}
	if order.ContactID == nil {
		return "", nil
	}
	c, err := d.repo.FindContactByID(ctx, *order.ContactID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find contact: %w", err)
	}
	return c.NormalizedEmail, nil
}

// resolveContent picks the template or the inline fallback and records the
// choice on send.
func (d *Dispatcher) resolveContent(ctx context.Context, send *models.EmailSend, slug string, params Params) (content, error) {
	tpl, err := d.repo.FindTemplateBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		send.Source = types.EmailSourceUnknown
		send.ErrorCode = lo.ToPtr(types.EmailErrorTemplateNotFound)
		logctx.FromCtx(ctx, d.log).Warnw("email_template_not_found", "template_slug", slug)
		return render(inlineFor(slug), params), nil
	}
	if err != nil {
		return content{}, fmt.Errorf("failed to find email template: %w", err)
	}

	send.TemplateID = lo.ToPtr(tpl.ID)
	if missing := missingPlaceholders(tpl.Placeholders.Data(), params); len(missing) > 0 {
		send.Source = types.EmailSourceInline
		send.ErrorCode = lo.ToPtr(types.EmailErrorMissingPlaceholders)
		logctx.FromCtx(ctx, d.log).Warnw("email_placeholders_missing", "template_slug", slug, "missing", missing)
		return render(inlineFor(slug), params), nil
	}
	send.Source = types.EmailSourceTemplate
	return render(contentOf(tpl), params), nil
}

// finish links send to the order unless another attempt got there first.
func (d *Dispatcher) finish(ctx context.Context, order *models.Order, send *models.EmailSend) (*Result, error) {
	won, err := d.repo.SetReceiptEmailSend(ctx, order.ID, send.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to link receipt to order: %w", err)
	}
	if won {
		order.ReceiptEmailSendID = lo.ToPtr(send.ID)
	} else {
		logctx.FromCtx(ctx, d.log).Warnw("receipt_link_lost", "order_id", order.ID, "email_send_id", send.ID)
	}
	d.biz.EmailSend(string(send.Status), string(send.Source))
	return resultOf(send, false), nil
}

func (d *Dispatcher) existing(ctx context.Context, id uint) (*Result, error) {
	send, err := d.repo.FindEmailSendByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt email send: %w", err)
	}
	return resultOf(send, true), nil
}

func resultOf(send *models.EmailSend, skipped bool) *Result {
	return &Result{
		EmailSendID: send.ID,
		Status:      send.Status,
		Source:      send.Source,
		ErrorCode:   lo.FromPtr(send.ErrorCode),
		Skipped:     skipped,
	}
}
