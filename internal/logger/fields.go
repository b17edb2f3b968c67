package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	FieldProjectID     = "project_id"
	FieldUserID        = "user_id"
	FieldApplicationID = "application_id"
	FieldRequestID     = "request_id"

	// maxLoggedPathLength bounds request paths written to the access log.
	maxLoggedPathLength = 256
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// Request describes a served HTTP request for the access log.
type Request struct {
	Method    string
	Path      string
	RequestID string
	RemoteIP  string
	Status    int
	Duration  time.Duration
}

// RequestFields returns the access log fields of a served request.
func RequestFields(r Request) []zap.Field {
	fields := StringFields(
		StringField{Key: "method", Value: r.Method},
		StringField{Key: "path", Value: TruncateForLog(r.Path, maxLoggedPathLength)},
		StringField{Key: FieldRequestID, Value: r.RequestID},
		StringField{Key: "remote_ip", Value: r.RemoteIP},
	)
	return append(fields,
		zap.Int("status", r.Status),
		zap.Duration("duration", r.Duration),
	)
}
