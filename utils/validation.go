package utils

import (
	"regexp"
	"strings"
)

// E.164-ish: optional + prefix followed by up to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone reports whether a phone number is in a valid international
// format after stripping common separators.
func ValidatePhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return phonePattern.MatchString(cleaned)
}
