package domain

import (
	"errors"
	"strings"
)

var ErrUnterminatedQuote = errors.New("unterminated quote in arguments")

// SplitQuoted splits s on whitespace while honoring single and double quotes,
// so `reason="too much spam"` stays one token.
func SplitQuoted(s string) ([]string, error) {
	var tokens []string
	var sb strings.Builder
	var quote rune
	pending := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				sb.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			pending = true
		case r == ' ' || r == '\t':
			if pending {
				tokens = append(tokens, sb.String())
				sb.Reset()
				pending = false
			}
		default:
			sb.WriteRune(r)
			pending = true
		}
	}

	if quote != 0 {
		return nil, ErrUnterminatedQuote
	}
	if pending {
		tokens = append(tokens, sb.String())
	}

	return tokens, nil
}

// ParseKwargs extracts `key=value` tokens for the given keys from raw argument
// text. Unknown keys and positional tokens are ignored.
func ParseKwargs(raw string, keys []string) map[string]string {
	kwargs := make(map[string]string)

	tokens, err := SplitQuoted(raw)
	if err != nil {
		return kwargs
	}

	for _, token := range tokens {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		for _, k := range keys {
			if key == k {
				kwargs[key] = value
				break
			}
		}
	}

	return kwargs
}

// StripKwargs returns raw with every recognized `key=value` token removed,
// leaving only the positional arguments.
func StripKwargs(raw string, keys []string) string {
	tokens, err := SplitQuoted(raw)
	if err != nil {
		return raw
	}

	var rest []string
	for _, token := range tokens {
		key, _, ok := strings.Cut(token, "=")
		known := false
		if ok {
			for _, k := range keys {
				if key == k {
					known = true
					break
				}
			}
		}
		if !known {
			rest = append(rest, token)
		}
	}

	return strings.Join(rest, " ")
}
