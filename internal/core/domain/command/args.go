package command

import (
	"strings"

	"modbot/internal/core/domain"
)

// RequireArgs rejects empty argument text and passes everything else through.
func RequireArgs(raw string) (any, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	return raw, true
}

// SplitArgs hands the handler whitespace-separated fields, at least one.
func SplitArgs(raw string) (any, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

// MinArgs builds a validator requiring at least n quote-aware tokens.
func MinArgs(n int) Validator {
	return func(raw string) (any, bool) {
		tokens, err := domain.SplitQuoted(raw)
		if err != nil || len(tokens) < n {
			return nil, false
		}
		return tokens, true
	}
}
