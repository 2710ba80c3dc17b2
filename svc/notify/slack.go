package notify

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/arnsnotify/pkg/webhook"
)

const (
	SlackSectionLimit     = 3000
	SlackHeaderLimit      = 150
	SlackMaxBlocksPerPost = 50
)

// JSONPoster posts a JSON body to a URL. *webhook.Sender implements it.
type JSONPoster interface {
	Send(ctx context.Context, url string, data any, opts ...webhook.SendOption) error
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type SlackBlock struct {
	Type string     `json:"type"`
	Text *SlackText `json:"text,omitempty"`
}

// SlackMessage is an incoming-webhook payload using Block Kit.
type SlackMessage struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackMessages renders c as one header block followed by mrkdwn sections of
// at most SlackSectionLimit runes. Long content spreads over several messages
// of at most SlackMaxBlocksPerPost blocks.
func SlackMessages(c Content) []SlackMessage {
	blocks := []SlackBlock{{
		Type: "header",
		Text: &SlackText{Type: "plain_text", Text: truncateRunes(c.Title, SlackHeaderLimit)},
	}}
	for _, seg := range SplitText(c.Markdown("*"), SlackSectionLimit) {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: seg},
		})
	}

	var out []SlackMessage
	for _, group := range chunk(blocks, SlackMaxBlocksPerPost) {
		out = append(out, SlackMessage{Text: c.Title, Blocks: group})
	}
	return out
}

// SlackProvider posts every envelope to one Slack incoming webhook.
type SlackProvider struct {
	url    string
	poster JSONPoster
	opts   []webhook.SendOption
}

// NewSlackProvider returns a provider that is disabled when url is empty.
func NewSlackProvider(url string, poster JSONPoster, opts ...webhook.SendOption) *SlackProvider {
	return &SlackProvider{url: url, poster: poster, opts: opts}
}

func (p *SlackProvider) Name() string  { return "slack" }
func (p *SlackProvider) Enabled() bool { return p.url != "" && p.poster != nil }

func (p *SlackProvider) Deliver(ctx context.Context, env Envelope) error {
	msgs := SlackMessages(envelopeContent(env))
	for i, msg := range msgs {
		if err := p.poster.Send(ctx, p.url, msg, p.opts...); err != nil {
			return fmt.Errorf("%w: slack message %d/%d: %w", ErrDeliveryFailed, i+1, len(msgs), err)
		}
	}
	return nil
}

// envelopeContent renders the event, letting an explicit subject override
// the generated title.
func envelopeContent(env Envelope) Content {
	c := BuildContent(env.Event)
	if env.Subject != "" {
		c.Title = env.Subject
	}
	return c
}
