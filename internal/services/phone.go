package services

import (
	"regexp"
	"strings"

	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// canonical form: country code + 9 subscriber digits, no plus sign.
var canonicalMSISDNRegex = regexp.MustCompile(`^` + constants.CountryCallingCode + `[17]\d{8}$`)

// NormalizeMSISDN converts the payer phone formats M-Pesa and tenants use
// into one canonical form, e.g. "254712345678":
//
//	+254712345678 → 254712345678
//	0712345678    → 254712345678  (local trunk prefix)
//	712345678     → 254712345678  (bare subscriber number)
//
// Anything that does not reduce to a valid subscriber number returns
// ErrInvalidPhone; callers treat that as "no match", never a crash.
func NormalizeMSISDN(raw string) (string, error) {
	digits := nonDigitRegex.ReplaceAllString(raw, "")

	switch {
	case strings.HasPrefix(digits, constants.CountryCallingCode) &&
		len(digits) == len(constants.CountryCallingCode)+constants.SubscriberDigits:
		// already canonical
	case strings.HasPrefix(digits, "0") && len(digits) == constants.SubscriberDigits+1:
		digits = constants.CountryCallingCode + digits[1:]
	case len(digits) == constants.SubscriberDigits:
		digits = constants.CountryCallingCode + digits
	default:
		return "", utils.ErrInvalidPhone
	}

	if !canonicalMSISDNRegex.MatchString(digits) {
		return "", utils.ErrInvalidPhone
	}
	return digits, nil
}
