// data.go provides typed context helpers for passing layout data from
// middleware to page components. Only simple types are stored so the
// layouts package never imports plugin types.
//
// Data flow: Middleware → Echo Context → LayoutInjector → Go Context → Component
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyActivePath ctxKey = "layout_active_path"
	keyAppName    ctxKey = "layout_app_name"
)

// defaultAppName is shown in the page title when none was injected.
const defaultAppName = "Bizledger"

// SetActivePath stores the current request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// GetActivePath returns the current request path, or "" if not set.
func GetActivePath(ctx context.Context) string {
	if v, ok := ctx.Value(keyActivePath).(string); ok {
		return v
	}
	return ""
}

// SetAppName stores the product name shown in page titles.
func SetAppName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyAppName, name)
}

// GetAppName returns the product name, falling back to the default.
func GetAppName(ctx context.Context) string {
	if v, ok := ctx.Value(keyAppName).(string); ok && v != "" {
		return v
	}
	return defaultAppName
}
