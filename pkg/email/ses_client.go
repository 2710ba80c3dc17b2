package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client used by the sender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesClient struct {
	api    SESAPI
	config Config
}

// SESOption configures NewSESClient.
type SESOption func(*sesOptions)

type sesOptions struct {
	api SESAPI
}

// WithSESAPI injects a pre-built SES client, skipping AWS config loading.
func WithSESAPI(api SESAPI) SESOption {
	return func(o *sesOptions) { o.api = api }
}

// NewSESClient creates an Amazon SES v2 backed sender. Static credentials are
// used when both key fields are set, otherwise the default AWS chain applies.
func NewSESClient(ctx context.Context, cfg Config, opts ...SESOption) (EmailSender, error) {
	if err := validateSender(cfg); err != nil {
		return nil, err
	}

	options := &sesOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.api == nil {
		if cfg.SESRegion == "" {
			return nil, fmt.Errorf("%w: SESRegion is required", ErrInvalidConfig)
		}

		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.SESRegion)}
		if cfg.SESAccessKeyID != "" && cfg.SESSecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.SESAccessKeyID, cfg.SESSecretKey, ""),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}

		options.api = sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			if cfg.SESEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.SESEndpoint)
			}
		})
	}

	return &sesClient{api: options.api, config: cfg}, nil
}

func (c *sesClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	body := &types.Body{Html: &types.Content{Data: aws.String(params.BodyHTML), Charset: aws.String("UTF-8")}}
	if params.BodyText != "" {
		body.Text = &types.Content{Data: aws.String(params.BodyText), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.config.SenderEmail),
		Destination:      &types.Destination{ToAddresses: []string{params.SendTo}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(params.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if c.config.SupportEmail != "" {
		input.ReplyToAddresses = []string{c.config.SupportEmail}
	}
	if params.Tag != "" {
		input.EmailTags = []types.MessageTag{{Name: aws.String("tag"), Value: aws.String(params.Tag)}}
	}

	if _, err := c.api.SendEmail(ctx, input); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}
