package notify

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// EmailComponent renders c as a minimal inline-styled HTML email.
func EmailComponent(c Content, footer string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;color:#1f2933;">`)
		sb.WriteString(`<h2 style="margin:0 0 12px;">`)
		sb.WriteString(templ.EscapeString(c.Title))
		sb.WriteString(`</h2>`)
		if c.Summary != "" {
			sb.WriteString(`<p>`)
			sb.WriteString(templ.EscapeString(c.Summary))
			sb.WriteString(`</p>`)
		}
		if len(c.Fields) > 0 {
			sb.WriteString(`<table cellpadding="4" style="border-collapse:collapse;">`)
			for _, f := range c.Fields {
				sb.WriteString(`<tr><td style="font-weight:bold;">`)
				sb.WriteString(templ.EscapeString(f.Label))
				sb.WriteString(`</td><td>`)
				sb.WriteString(templ.EscapeString(f.Value))
				sb.WriteString(`</td></tr>`)
			}
			sb.WriteString(`</table>`)
		}
		if footer != "" {
			sb.WriteString(`<p style="font-size:12px;color:#7b8794;">`)
			sb.WriteString(templ.EscapeString(footer))
			sb.WriteString(`</p>`)
		}
		sb.WriteString(`</body></html>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}
