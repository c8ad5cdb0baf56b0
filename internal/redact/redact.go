// Package redact masks personal data before it reaches logs.
package redact

import "strings"

// Email keeps the first character of the local part and the domain:
// "alice@example.com" becomes "a***@example.com". Anything that is not an
// address is fully masked.
func Email(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
