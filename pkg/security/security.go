// Package security provides validation and sanitization for the queues package.
package security

import (
	"strings"
	"unicode/utf8"

	"github.com/jdziat/simple-job-queues/pkg/core"
)

// Limits
const (
	// MaxJobNameLength is the maximum length for job names
	MaxJobNameLength = 255

	// MaxQueueNameLength is the maximum length for queue names
	MaxQueueNameLength = 255

	// MaxErrorMessageLength is the maximum length for result messages
	MaxErrorMessageLength = 4096
)

// ValidateJobName validates a job name. Any non-empty string up to
// MaxJobNameLength bytes is accepted, including spaces and Unicode.
func ValidateJobName(name string) error {
	if name == "" {
		return core.ErrInvalidJobName
	}
	if len(name) > MaxJobNameLength {
		return core.ErrJobNameTooLong
	}
	return nil
}

// ValidateQueueName validates a queue name with the same rules as job names.
func ValidateQueueName(name string) error {
	if name == "" {
		return core.ErrInvalidQueueName
	}
	if len(name) > MaxQueueNameLength {
		return core.ErrQueueNameTooLong
	}
	return nil
}

// SanitizeErrorMessage drops control characters (except newlines and tabs)
// and truncates overly long messages.
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}
