package textutil

import "strings"

// PhoneSuffixLen is the number of trailing digits compared when matching
// phone numbers. Ten digits cover a North American number without its
// country code, which absorbs "+1", "1-" and similar prefix variance.
const PhoneSuffixLen = 10

// Digits returns only the ASCII digits of s, in order.
func Digits(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// PhoneSuffix returns the last PhoneSuffixLen digits of a digit string,
// or the whole string when it is shorter.
func PhoneSuffix(digits string) string {
	if len(digits) <= PhoneSuffixLen {
		return digits
	}
	return digits[len(digits)-PhoneSuffixLen:]
}

// LooksLikePhone reports whether s consists only of digits and common phone
// punctuation (+ - ( ) . and spaces) and contains at least one digit.
func LooksLikePhone(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '+', r == '-', r == '(', r == ')', r == '.', r == ' ':
		default:
			return false
		}
	}
	return hasDigit
}

// ContainsDigit reports whether s has at least one ASCII digit.
func ContainsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
