// Package ctxlog carries the application's slog.Logger through a
// context.Context, optionally scoped to the addon being loaded.
package ctxlog

import (
	"context"
	"log/slog"
)

type (
	loggerKey struct{}
	addonKey  struct{}
)

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithAddon scopes ctx to an addon: the logger returned by FromContext
// gains an addon attribute, and Addon reports the name.
func WithAddon(ctx context.Context, addon string) context.Context {
	ctx = context.WithValue(ctx, addonKey{}, addon)
	return WithLogger(ctx, FromContext(ctx).With("addon", addon))
}

// Addon returns the addon ctx is scoped to, or "" outside of one.
func Addon(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(addonKey{}).(string)
	return name
}

// FromContext returns the logger carried by ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
