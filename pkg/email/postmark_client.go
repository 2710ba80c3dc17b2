package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers mail through the Postmark transactional API.
type PostmarkSender struct {
	api      *postmark.Client
	from     string
	replyTo  string
	tracking bool
}

// PostmarkOption adjusts a PostmarkSender.
type PostmarkOption func(*PostmarkSender)

// WithPostmarkBaseURL overrides the API host. Tests point it at httptest.
func WithPostmarkBaseURL(url string) PostmarkOption {
	return func(s *PostmarkSender) {
		if url != "" {
			s.api.BaseURL = url
		}
	}
}

// WithoutTracking disables open and link tracking.
func WithoutTracking() PostmarkOption {
	return func(s *PostmarkSender) { s.tracking = false }
}

// NewPostmarkClient needs both Postmark tokens and a valid sender address.
func NewPostmarkClient(cfg Config, opts ...PostmarkOption) (*PostmarkSender, error) {
	switch {
	case cfg.PostmarkServerToken == "":
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	case cfg.PostmarkAccountToken == "":
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if err := validateSender(cfg); err != nil {
		return nil, err
	}

	s := &PostmarkSender{
		api:      postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:     cfg.SenderEmail,
		replyTo:  cfg.SupportEmail,
		tracking: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SendEmail implements EmailSender. A non-zero Postmark ErrorCode is a
// failure even when the HTTP call succeeded.
func (s *PostmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg := postmark.Email{
		From:     s.from,
		ReplyTo:  s.replyTo,
		To:       params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		HTMLBody: params.BodyHTML,
		TextBody: params.BodyText,
	}
	if s.tracking {
		msg.TrackOpens = true
		msg.TrackLinks = "HtmlOnly"
	}

	resp, err := s.api.SendEmail(ctx, msg)
	switch {
	case err != nil:
		return errors.Join(ErrFailedToSendEmail, err)
	case resp.ErrorCode != 0:
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("postmark code %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
