package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	cardIDKey    contextKey = "card_id"
	buildIDKey   contextKey = "build_id"
	stageKey     contextKey = "stage"
)

// WithRequestID annotates context with a correlation identifier for one
// match call.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCardID annotates context with the corpus card being processed.
func WithCardID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cardIDKey, id)
}

// CardIDFromContext returns the card identifier if present.
func CardIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cardIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBuildID annotates context with the index build identifier.
func WithBuildID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, buildIDKey, id)
}

// BuildIDFromContext returns the index build identifier if present.
func BuildIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(buildIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
