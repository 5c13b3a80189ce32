package producer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTransport covers network and connection failures.
	ErrTransport = errors.New("transport error")
	// ErrResponse covers non-success statuses and malformed payloads.
	ErrResponse = errors.New("invalid response")
	// ErrTimeout marks calls that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration marks missing credentials or settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidParameters marks job parameters the producer cannot use.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrShortOutput marks empty or truncated output.
	ErrShortOutput = errors.New("short output")
)

// Wrap builds an error that names the producer kind and operation while
// tagging it with marker for classification.
func Wrap(marker error, kind, operation, message string, err error) error {
	detail := buildDetail(kind, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(kind, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{kind, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "producer failure"
	}
	return strings.Join(parts, ": ")
}

// Snippet flattens whitespace and truncates s to limit runes for log and
// summary output.
func Snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
