package identity

import "strings"

const (
	ibanCountry = "ES"
	ibanLength  = 24
)

// ValidIBAN checks a Spanish IBAN: 24 characters, ES prefix, two check
// digits and twenty account digits, and the ISO 7064 mod-97 checksum.
func ValidIBAN(s string) bool {
	s = Normalize(s)
	if len(s) != ibanLength || !strings.HasPrefix(s, ibanCountry) {
		return false
	}
	for _, c := range s[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return mod97(s[4:]+s[:4]) == 1
}

// mod97 folds the rearranged account into a remainder one character at a
// time, expanding letters to charCode-55 so the numeral never overflows.
func mod97(s string) int {
	rem := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			v := int(c) - 55
			rem = (rem*100 + v) % 97
		default:
			return -1
		}
	}
	return rem
}
