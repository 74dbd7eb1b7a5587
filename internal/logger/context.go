package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey  ctxKey = "request_id"
	customerIDKey ctxKey = "customer_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// WithCustomerID tags the context with the customer (phone) the request acts on.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, customerIDKey, customerID)
}

func CustomerIDFrom(ctx context.Context) string {
	if v := ctx.Value(customerIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// FromCtx returns logger with request_id and customer_id automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if custID := CustomerIDFrom(ctx); custID != "" {
		l = l.With(zap.String("customer_id", custID))
	}
	return l
}
