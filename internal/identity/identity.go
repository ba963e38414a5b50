// Package identity validates Spanish tax identifiers and bank accounts.
//
// Every validator is a pure predicate: malformed input, including the empty
// string, yields false rather than an error.
package identity

import (
	"regexp"
	"strings"
)

// Kind is the family a tax identifier belongs to.
type Kind string

const (
	KindPersonal Kind = "personal" // NIF/DNI
	KindCompany  Kind = "company"  // CIF
	KindForeign  Kind = "foreign"  // NIE
	KindUnknown  Kind = "unknown"
)

// nifAlphabet maps numeric part mod 23 to the control letter.
const nifAlphabet = "TRWAGMYFPDXBNJZSQVHLCKE"

// cifControlLetters maps the computed control digit to its letter form.
const cifControlLetters = "JABCDEFGHI"

var (
	nifPattern = regexp.MustCompile(`^[0-9]{8}[A-Z]$`)
	cifPattern = regexp.MustCompile(`^[ABCDEFGHJNPQRSUVW][0-9]{7}[0-9A-J]$`)
	niePattern = regexp.MustCompile(`^[XYZ][0-9]{7}[A-Z]$`)
)

// Normalize upper-cases s and drops spaces, hyphens and dots.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '.':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}

// ValidNIF checks format and control letter of a personal tax ID.
func ValidNIF(s string) bool {
	s = Normalize(s)
	if !nifPattern.MatchString(s) {
		return false
	}
	n := 0
	for _, c := range s[:8] {
		n = n*10 + int(c-'0')
	}
	return s[8] == nifAlphabet[n%23]
}

// ValidCIF checks the format of a company tax ID. The trailing control
// character is not verified; see CIFControlMatches.
func ValidCIF(s string) bool {
	return cifPattern.MatchString(Normalize(s))
}

// ValidNIE checks the format of a foreign-resident ID.
func ValidNIE(s string) bool {
	return niePattern.MatchString(Normalize(s))
}

// ValidTaxID accepts any well-formed NIF, CIF or NIE.
func ValidTaxID(s string) bool {
	return Classify(s) != KindUnknown
}

// Classify returns the kind of a valid tax ID, or KindUnknown.
func Classify(s string) Kind {
	switch {
	case ValidNIF(s):
		return KindPersonal
	case ValidNIE(s):
		return KindForeign
	case ValidCIF(s):
		return KindCompany
	}
	return KindUnknown
}

// CIFControlMatches verifies the control character of a company ID. Digits
// in odd positions are doubled and their digits summed, digits in even
// positions are added as is; the control is (10 - sum mod 10) mod 10, written
// as a digit or as the letter at that index of "JABCDEFGHI".
//
// Entities of type P, Q, R, S, W and N must use the letter form; A, B, E and H
// must use the digit form; the rest may use either.
func CIFControlMatches(s string) bool {
	s = Normalize(s)
	if !cifPattern.MatchString(s) {
		return false
	}

	sum := 0
	for i, c := range s[1:8] {
		v := int(c - '0')
		if i%2 == 0 {
			v *= 2
			v = v/10 + v%10
		}
		sum += v
	}
	digit := (10 - sum%10) % 10
	control := s[8]

	asDigit := control == byte('0'+digit)
	asLetter := control == cifControlLetters[digit]

	switch s[0] {
	case 'P', 'Q', 'R', 'S', 'W', 'N':
		return asLetter
	case 'A', 'B', 'E', 'H':
		return asDigit
	}
	return asDigit || asLetter
}
