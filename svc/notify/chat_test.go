package notify_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "hello", 10, []string{"hello"}},
		{"prefers newline", "aaaa\nbbbb cc\ndd", 12, []string{"aaaa\n", "bbbb cc\ndd"}},
		{"falls back to space", "aaaa bbbb cccc", 10, []string{"aaaa bbbb ", "cccc"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"multibyte", "ééééé", 2, []string{"éé", "éé", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notify.SplitText(tt.in, tt.limit))
		})
	}
}

func TestSplitText_NeverLosesContent(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("lorem ipsum dolor sit amet\n", 500)
	segments := notify.SplitText(long, notify.SlackSectionLimit)

	require.Greater(t, len(segments), 1)
	for _, s := range segments {
		assert.LessOrEqual(t, utf8.RuneCountInString(s), notify.SlackSectionLimit)
	}
	assert.Equal(t, long, strings.Join(segments, ""))
}

func longContent(n int) notify.Content {
	return notify.Content{
		Title:   "ArNS name expired: example",
		Summary: strings.Repeat("x", n),
	}
}

func TestSlackMessages(t *testing.T) {
	t.Parallel()

	msgs := notify.SlackMessages(longContent(7000))
	require.Len(t, msgs, 1)

	blocks := msgs[0].Blocks
	require.Len(t, blocks, 4)
	assert.Equal(t, "header", blocks[0].Type)
	for _, b := range blocks[1:] {
		assert.Equal(t, "section", b.Type)
		assert.Equal(t, "mrkdwn", b.Text.Type)
		assert.LessOrEqual(t, utf8.RuneCountInString(b.Text.Text), notify.SlackSectionLimit)
	}
	assert.Equal(t, "ArNS name expired: example", msgs[0].Text)
}

func TestSlackMessages_SpillsOverBlockLimit(t *testing.T) {
	t.Parallel()

	msgs := notify.SlackMessages(longContent(notify.SlackSectionLimit * 60))

	require.Len(t, msgs, 2)
	assert.Len(t, msgs[0].Blocks, notify.SlackMaxBlocksPerPost)
	assert.Len(t, msgs[1].Blocks, 11)

	total := 0
	for _, m := range msgs {
		for _, b := range m.Blocks {
			if b.Type == "section" {
				total += utf8.RuneCountInString(b.Text.Text)
			}
		}
	}
	assert.Equal(t, notify.SlackSectionLimit*60, total)
}

func TestDiscordMessages(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	msgs := notify.DiscordMessages(longContent(5000), notify.EventGracePeriodStart, at)

	require.Len(t, msgs, 1)
	embeds := msgs[0].Embeds
	require.Len(t, embeds, 2)
	assert.Equal(t, "ArNS name expired: example", embeds[0].Title)
	assert.Empty(t, embeds[1].Title)
	assert.Equal(t, notify.DiscordDescriptionLimit, utf8.RuneCountInString(embeds[0].Description))
	assert.Equal(t, 904, utf8.RuneCountInString(embeds[1].Description))
	assert.Equal(t, "2025-05-01T12:00:00Z", embeds[1].Timestamp)
	assert.Equal(t, 0xE67E22, embeds[0].Color)
}

func TestDiscordMessages_RespectsMessageLimits(t *testing.T) {
	t.Parallel()

	msgs := notify.DiscordMessages(longContent(notify.DiscordDescriptionLimit*12), notify.EventBuyNameNotice, time.Time{})

	embeds := 0
	for _, m := range msgs {
		assert.LessOrEqual(t, len(m.Embeds), notify.DiscordMaxEmbeds)
		chars := 0
		for _, e := range m.Embeds {
			chars += utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
		}
		assert.LessOrEqual(t, chars, notify.DiscordMessageCharLimit)
		embeds += len(m.Embeds)
	}
	assert.Equal(t, 12, embeds)
	assert.Len(t, msgs, 12)
}
