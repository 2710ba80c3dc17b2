package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/arnsnotify/pkg/email"
	"github.com/dmitrymomot/arnsnotify/pkg/email/templates"
)

const defaultEmailFooter = "You receive this email because you subscribed to ArNS notifications."

// EmailProvider sends one message per recipient through an email.EmailSender.
// An invalid address or a rejected send fails that recipient only.
type EmailProvider struct {
	sender      email.EmailSender
	footer      string
	concurrency int
}

type EmailOption func(*EmailProvider)

func WithEmailFooter(footer string) EmailOption {
	return func(p *EmailProvider) {
		p.footer = footer
	}
}

// WithEmailConcurrency bounds parallel sends per envelope. Default 4.
func WithEmailConcurrency(n int) EmailOption {
	return func(p *EmailProvider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewEmailProvider returns a provider that is disabled when sender is nil.
func NewEmailProvider(sender email.EmailSender, opts ...EmailOption) *EmailProvider {
	p := &EmailProvider{
		sender:      sender,
		footer:      defaultEmailFooter,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *EmailProvider) Name() string  { return "email" }
func (p *EmailProvider) Enabled() bool { return p.sender != nil }

func (p *EmailProvider) Deliver(ctx context.Context, env Envelope) error {
	if len(env.Recipients) == 0 {
		return nil
	}

	msg, err := p.compose(ctx, env)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, r := range env.Recipients {
		g.Go(func() error {
			err := p.sendOne(ctx, r, msg)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d emails: %w", ErrDeliveryFailed, len(errs), len(env.Recipients), errors.Join(errs...))
	}
	return nil
}

func (p *EmailProvider) sendOne(ctx context.Context, r Recipient, msg email.SendEmailParams) error {
	if !email.IsValidAddress(r.Email) {
		return fmt.Errorf("subscriber %s: %w: malformed address %q", r.SubscriberID, email.ErrInvalidParams, r.Email)
	}
	msg.SendTo = r.Email
	if err := p.sender.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("subscriber %s: %w", r.SubscriberID, err)
	}
	return nil
}

// compose uses the envelope's subject and bodies when present and renders
// the rest from the event.
func (p *EmailProvider) compose(ctx context.Context, env Envelope) (email.SendEmailParams, error) {
	c := envelopeContent(env)
	msg := email.SendEmailParams{
		Subject:  c.Title,
		BodyHTML: env.HTML,
		BodyText: env.Text,
		Tag:      string(env.Event.EventType),
	}
	if msg.BodyHTML == "" {
		html, err := templates.Render(ctx, EmailComponent(c, p.footer))
		if err != nil {
			return msg, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}
		msg.BodyHTML = html
	}
	if msg.BodyText == "" {
		msg.BodyText = c.Text()
	}
	return msg, nil
}
