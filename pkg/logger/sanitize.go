package logger

import (
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(local) > 1 {
		local = local[:1] + strings.Repeat("*", len(local)-1)
	}

	// keep the TLD only
	labels := strings.Split(domain, ".")
	if len(labels) > 1 {
		for i := 0; i < len(labels)-1; i++ {
			labels[i] = strings.Repeat("*", len(labels[i]))
		}
		domain = strings.Join(labels, ".")
	}

	return local + "@" + domain
}

// SanitizedWallet keeps the prefix and the last four hex digits of a wallet address.
func SanitizedWallet(address string) string {
	if len(address) < 10 {
		return "[invalid-wallet]"
	}
	return address[:6] + "..." + address[len(address)-4:]
}

var sensitiveQueryParams = []string{
	"password",
	"token",
	"secret",
	"email",
	"auth",
	"wallet",
	"signature",
}

// SanitizeQueryString reports whether rawQuery mentions a sensitive parameter
// and must be redacted in full.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveQueryParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
