package security

import "strings"

const mask = "***"

var sensitiveSubstrings = []string{
	"token",
	"password",
	"passwd",
	"pwd",
	"passphrase",
	"authorization",
	"bearer",
	"apikey",
	"api_key",
	"access_key",
	"private_key",
	"credential",
	"secret",
	"cookie",
	"session",
	"jwt",
	"signature",
	"ssn",
	"tax_id",
	"bank_account",
}

// Keys that contain a sensitive substring but only name or reference a secret.
var allowList = map[string]struct{}{
	"secret_name":  {},
	"session_date": {},
}

// RedactParams returns a deep copy of params with sensitive values masked.
// Nested maps and lists are walked; keys are matched case-insensitively.
func RedactParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		if IsSensitiveKey(key) {
			out[key] = mask
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return RedactParams(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactValue(item)
		}
		return out
	default:
		return value
	}
}

// IsSensitiveKey reports whether a parameter name looks like it carries a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if _, ok := allowList[lower]; ok {
		return false
	}
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
