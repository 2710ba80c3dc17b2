package notify

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrymomot/arnsnotify/pkg/webhook"
)

const (
	DiscordDescriptionLimit = 4096
	DiscordTitleLimit       = 256
	DiscordMaxEmbeds        = 10
	DiscordMessageCharLimit = 6000
)

type DiscordEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// DiscordMessage is an execute-webhook payload.
type DiscordMessage struct {
	Username string         `json:"username,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

func eventColor(t EventType) int {
	switch t {
	case EventBuyNameNotice:
		return 0x2ECC71
	case EventGracePeriodStart:
		return 0xE67E22
	case EventGracePeriodEnding:
		return 0xE74C3C
	default:
		return 0x3498DB
	}
}

// DiscordMessages renders c as embeds whose descriptions hold at most
// DiscordDescriptionLimit runes. Embeds are grouped into messages of at most
// DiscordMaxEmbeds embeds and DiscordMessageCharLimit characters.
func DiscordMessages(c Content, eventType EventType, at time.Time) []DiscordMessage {
	segments := SplitText(c.Markdown("**"), DiscordDescriptionLimit)
	if len(segments) == 0 {
		segments = []string{""}
	}

	title := truncateRunes(c.Title, DiscordTitleLimit)
	embeds := make([]DiscordEmbed, 0, len(segments))
	for i, seg := range segments {
		e := DiscordEmbed{Description: seg, Color: eventColor(eventType)}
		if i == 0 {
			e.Title = title
		}
		if i == len(segments)-1 && !at.IsZero() {
			e.Timestamp = at.UTC().Format(time.RFC3339)
		}
		embeds = append(embeds, e)
	}

	var out []DiscordMessage
	var cur []DiscordEmbed
	size := 0
	for _, e := range embeds {
		n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
		if len(cur) > 0 && (len(cur) == DiscordMaxEmbeds || size+n > DiscordMessageCharLimit) {
			out = append(out, DiscordMessage{Embeds: cur})
			cur, size = nil, 0
		}
		cur = append(cur, e)
		size += n
	}
	if len(cur) > 0 {
		out = append(out, DiscordMessage{Embeds: cur})
	}
	return out
}

// DiscordProvider posts every envelope to one Discord webhook.
type DiscordProvider struct {
	url      string
	username string
	poster   JSONPoster
	opts     []webhook.SendOption
	now      func() time.Time
}

// NewDiscordProvider returns a provider that is disabled when url is empty.
func NewDiscordProvider(url, username string, poster JSONPoster, opts ...webhook.SendOption) *DiscordProvider {
	return &DiscordProvider{url: url, username: username, poster: poster, opts: opts, now: time.Now}
}

func (p *DiscordProvider) Name() string  { return "discord" }
func (p *DiscordProvider) Enabled() bool { return p.url != "" && p.poster != nil }

func (p *DiscordProvider) Deliver(ctx context.Context, env Envelope) error {
	msgs := DiscordMessages(envelopeContent(env), env.Event.EventType, p.now())
	for i, msg := range msgs {
		msg.Username = p.username
		if err := p.poster.Send(ctx, p.url, msg, p.opts...); err != nil {
			return fmt.Errorf("%w: discord message %d/%d: %w", ErrDeliveryFailed, i+1, len(msgs), err)
		}
	}
	return nil
}
