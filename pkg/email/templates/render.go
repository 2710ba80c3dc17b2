// Package templates renders templ components into email bodies.
package templates

import (
	"context"
	"errors"
	"strings"

	"github.com/a-h/templ"
)

var ErrRenderFailed = errors.New("email template render failed")

// Render renders tpl into a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	if tpl == nil {
		return "", errors.Join(ErrRenderFailed, errors.New("nil component"))
	}
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	return sb.String(), nil
}
