package email

const (
	ProviderPostmark = "postmark"
	ProviderSES      = "ses"
	ProviderDev      = "dev"
)

// Config holds email service configuration. Provider credentials are only
// required for the provider that is selected.
type Config struct {
	Provider string `env:"EMAIL_PROVIDER" envDefault:"dev"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	// Tracking turns on Postmark open and link tracking.
	Tracking bool `env:"EMAIL_TRACKING" envDefault:"true"`

	SESRegion      string `env:"SES_REGION"`
	SESAccessKeyID string `env:"SES_ACCESS_KEY_ID"`
	SESSecretKey   string `env:"SES_SECRET_ACCESS_KEY"`
	SESEndpoint    string `env:"SES_ENDPOINT"`

	DevOutputDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`

	SenderEmail  string `env:"SENDER_EMAIL,required"`
	SupportEmail string `env:"SUPPORT_EMAIL"`
}
