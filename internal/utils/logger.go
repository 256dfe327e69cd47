package utils

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const requestIDCtxKey ctxKey = "request_id"

// Logger is the process-wide structured logger.
var Logger = logrus.New()

// ConfigureLogger applies level (debug, info, warn, error) and format (text, json).
func ConfigureLogger(level, format string) {
	Logger.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		Logger.SetLevel(lvl)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// WithRequestID stores the request id so services can log it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, strings.TrimSpace(requestID))
}

func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDCtxKey).(string); ok {
		return v
	}
	return ""
}

// Entry returns a log entry tagged with module, action and request_id.
func Entry(ctx context.Context, module, action string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"module":     strings.ToUpper(module),
		"action":     action,
		"request_id": RequestIDFrom(ctx),
	})
}

// LogEvent prints a standardized info line. Avoid sensitive payloads; summarize.
func LogEvent(ctx context.Context, module, action, message string) {
	Entry(ctx, module, action).Info(message)
}

// LogError records err with its cause. Callers return a generic message to users.
func LogError(ctx context.Context, module, action string, err error) {
	if err == nil {
		return
	}
	Entry(ctx, module, action).WithError(err).Error("operation failed")
}
