// Package pages holds standalone page components that belong to no plugin.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/bizledger/internal/templates/layouts"
)

// ErrorPage renders a full error page for browser requests.
func ErrorPage(code int, message string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<section class="error"><h1>%d</h1><h2>%s</h2><p>%s</p><a href="/activity">Back to activity</a></section>`,
			code,
			templ.EscapeString(http.StatusText(code)),
			templ.EscapeString(message),
		)
		return err
	})
	return layouts.Base(http.StatusText(code), body)
}
