package httpserver

import "context"

type requestContextKey string

const requestIDKey requestContextKey = "requestId"

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(requestIDKey).(string)
	return value, ok
}
