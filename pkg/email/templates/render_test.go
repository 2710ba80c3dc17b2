package templates_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/pkg/email/templates"
)

func TestRender(t *testing.T) {
	t.Parallel()

	ok := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hello</p>")
		return err
	})
	out, err := templates.Render(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", out)

	failing := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return errors.New("boom")
	})
	_, err = templates.Render(context.Background(), failing)
	assert.ErrorIs(t, err, templates.ErrRenderFailed)

	_, err = templates.Render(context.Background(), nil)
	assert.ErrorIs(t, err, templates.ErrRenderFailed)
}
