package notify

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Field is one labelled value of rendered event content.
type Field struct {
	Label string
	Value string
}

// Content is the channel-neutral rendering of an event.
type Content struct {
	Title   string
	Summary string
	Fields  []Field
}

// Text renders the content as plain text with one field per line.
func (c Content) Text() string {
	var sb strings.Builder
	if c.Summary != "" {
		sb.WriteString(c.Summary)
	}
	for _, f := range c.Fields {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.Label)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
	}
	return sb.String()
}

// Markdown renders the content with bold labels, as Slack and Discord accept.
func (c Content) Markdown(bold string) string {
	var sb strings.Builder
	if c.Summary != "" {
		sb.WriteString(c.Summary)
	}
	for _, f := range c.Fields {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(bold + f.Label + ":" + bold + " " + f.Value)
	}
	return sb.String()
}

// well-known eventData keys, rendered first and in this order.
var knownFields = []struct{ key, label string }{
	{"name", "Name"},
	{"type", "Purchase type"},
	{"years", "Years"},
	{"owner", "Owner"},
	{"sender", "Sender"},
	{"processId", "Process ID"},
	{"purchasePrice", "Price"},
	{"startTimestamp", "Start"},
	{"endTimestamp", "Expires"},
	{"gracePeriodEnd", "Grace period ends"},
}

// BuildContent renders e for humans. Known eventData keys become labelled
// fields; the rest follow in key order.
func BuildContent(e Event) Content {
	name := stringValue(e.EventData["name"])

	c := Content{}
	switch e.EventType {
	case EventBuyNameNotice:
		c.Title = "New ArNS name purchased"
		if name != "" {
			c.Title += ": " + name
		}
		c.Summary = "A name was bought on the ArNS registry."
	case EventGracePeriodStart:
		c.Title = "ArNS name expired: " + name
		c.Summary = fmt.Sprintf("The lease on %s has ended and the name entered its grace period. Renew it before the grace period ends to keep it.", name)
	case EventGracePeriodEnding:
		c.Title = "ArNS grace period ending: " + name
		c.Summary = fmt.Sprintf("The grace period for %s ends soon. After that the name returns to the registry.", name)
	case EventExtendLeaseNotice:
		c.Title = "ArNS lease extended: " + name
	case EventIncreaseUndernames:
		c.Title = "ArNS undername limit increased: " + name
	default:
		c.Title = "Event: " + string(e.EventType)
	}

	used := make(map[string]bool, len(knownFields))
	for _, kf := range knownFields {
		v, ok := e.EventData[kf.key]
		if !ok || v == nil {
			continue
		}
		used[kf.key] = true
		c.Fields = append(c.Fields, Field{Label: kf.label, Value: formatValue(kf.key, v)})
	}
	for _, k := range slices.Sorted(maps.Keys(e.EventData)) {
		if used[k] || e.EventData[k] == nil {
			continue
		}
		c.Fields = append(c.Fields, Field{Label: k, Value: formatValue(k, e.EventData[k])})
	}

	if e.BlockHeight != nil {
		c.Fields = append(c.Fields, Field{Label: "Block height", Value: strconv.FormatInt(*e.BlockHeight, 10)})
	}
	if e.Nonce != 0 {
		c.Fields = append(c.Fields, Field{Label: "Nonce", Value: strconv.FormatInt(e.Nonce, 10)})
	}
	return c
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// formatValue renders millisecond timestamps as RFC 3339 dates.
func formatValue(key string, v any) string {
	if strings.HasSuffix(key, "Timestamp") || key == "gracePeriodEnd" {
		if ms, ok := toInt64(v); ok && ms > 0 {
			return time.UnixMilli(ms).UTC().Format(time.RFC3339)
		}
	}
	return stringValue(v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}
