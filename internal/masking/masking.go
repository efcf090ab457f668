// Package masking redacts payout destinations (card numbers, phone
// numbers) before they are persisted. Masking is irreversible: the raw
// destination must be dropped right after the call.
package masking

import (
	"strings"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// Mask returns a redacted form of raw suitable for storage and display.
// Rules are applied in order, first match wins:
//
//	CARD + exactly 16 digits    -> "8600 **** **** 1234"
//	"+"-prefixed, len >= 10     -> "+99890****567"
//	all digits, len >= 9        -> "9989****567"-style (first 4, last 3)
//	len > 6                     -> first 3, "****", last 3
//	anything shorter            -> first rune + "***"
func Mask(method entities.WithdrawalMethod, raw string) string {
	s := strings.TrimSpace(raw)

	if method == entities.CARD && len(s) == 16 && allDigits(s) {
		return s[:4] + " **** **** " + s[12:]
	}

	if strings.HasPrefix(s, "+") && len(s) >= 10 {
		return s[:6] + "****" + s[len(s)-3:]
	}

	if len(s) >= 9 && allDigits(s) {
		return s[:4] + "****" + s[len(s)-3:]
	}

	if len(s) > 6 {
		return s[:3] + "****" + s[len(s)-3:]
	}

	if s == "" {
		return "***"
	}
	return string([]rune(s)[0]) + "***"
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
