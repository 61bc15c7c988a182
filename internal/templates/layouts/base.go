package layouts

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// navLinks are the top-level pages shown in the header.
var navLinks = []struct {
	Path  string
	Label string
}{
	{"/activity", "Activity"},
}

// Base wraps a page body in the shared HTML shell.
func Base(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		app := GetAppName(ctx)
		active := GetActivePath(ctx)

		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s · %s</title>`+
				`<link rel="stylesheet" href="/static/css/app.css"></head><body><header><nav>`,
			templ.EscapeString(title), templ.EscapeString(app),
		); err != nil {
			return err
		}

		for _, l := range navLinks {
			class := ""
			if l.Path == active {
				class = ` class="active"`
			}
			if _, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a>`,
				templ.EscapeString(l.Path), class, templ.EscapeString(l.Label)); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, `</nav></header><main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}
