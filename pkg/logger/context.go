package logger

import "context"

type contextKey struct{}

// NewContext attaches a logger to the context so deeper layers can pick up
// the process-wide logger without threading it through every constructor.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the attached logger, or a default info-level logger
// when none is attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return NewLogger("info", "")
}
