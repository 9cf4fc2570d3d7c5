package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// NewLogger builds the process-wide zap logger. Production gets JSON output
// at info level; everything else gets the human-readable development config
// at debug level.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// Pattern to match connection string credentials (user:pass@host format)
var connStringPattern = regexp.MustCompile(`://[^:/]+:[^@]+@`)

// RedactedText is the replacement text for sensitive data
const RedactedText = "[REDACTED]"

// SanitizeConnectionString removes credentials from a database URL.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return connStringPattern.ReplaceAllString(connStr, "://"+RedactedText+"@")
}
