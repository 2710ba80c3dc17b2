package notify

import "time"

// Config configures the channel providers and the dispatcher.
type Config struct {
	SlackWebhookURL   string `env:"SLACK_WEBHOOK_URL"`
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	DiscordUsername   string `env:"DISCORD_USERNAME" envDefault:"ArNS Notify"`

	EmailEnabled       bool `env:"NOTIFY_EMAIL_ENABLED" envDefault:"true"`
	EmailConcurrency   int  `env:"NOTIFY_EMAIL_CONCURRENCY" envDefault:"4"`
	WebhooksEnabled    bool `env:"NOTIFY_WEBHOOKS_ENABLED" envDefault:"true"`
	WebhookConcurrency int  `env:"NOTIFY_WEBHOOK_CONCURRENCY" envDefault:"8"`

	MaxConcurrency  int           `env:"NOTIFY_MAX_CONCURRENCY" envDefault:"4"`
	DispatchTimeout time.Duration `env:"NOTIFY_DISPATCH_TIMEOUT" envDefault:"2m"`

	WebhookTimeout    time.Duration `env:"NOTIFY_WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookMaxRetries int           `env:"NOTIFY_WEBHOOK_MAX_RETRIES" envDefault:"2"`
	BreakerFailures   int           `env:"NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown   time.Duration `env:"NOTIFY_BREAKER_COOLDOWN" envDefault:"1m"`
}
