// Package isbn provides ISBN parsing, validation, and 10/13 conversion.
// All identifiers flow through the rest of the system as normalized ISBN-13
// digit strings.
package isbn

import (
	"strings"

	"github.com/arguspanoptes/argus-server/internal/errors"
)

// ISBN10 is a validated 10-character ISBN (final character may be X).
type ISBN10 string

// ISBN13 is a validated 13-digit ISBN.
type ISBN13 string

// String returns the raw digit string.
func (i ISBN10) String() string { return string(i) }

// String returns the raw digit string.
func (i ISBN13) String() string { return string(i) }

// Parsed is the result of a successful Parse.
type Parsed struct {
	ISBN13     ISBN13
	ISBN10     ISBN10 // set only when the 13-form begins with 978
	Hyphenated string
}

// Parse normalizes raw user input into an ISBN-13.
//
// All characters outside [0-9Xx] are stripped. Ten-character input is
// validated against the mod-11 check digit (X counts as 10) and converted
// to the 978-prefixed 13-form; thirteen-digit input is validated against
// the mod-10 check digit directly. Error messages are user-safe and name
// the rule that failed.
func Parse(raw string) (Parsed, error) {
	cleaned := clean(raw)

	switch len(cleaned) {
	case 10:
		if !validChars10(cleaned) {
			return Parsed{}, errors.Validation("ISBN contains invalid characters")
		}
		if checkDigit10(cleaned[:9]) != cleaned[9] {
			return Parsed{}, errors.Validation("ISBN-10 check digit is invalid")
		}
		thirteen := to13(ISBN10(cleaned))
		return Parsed{
			ISBN13:     thirteen,
			ISBN10:     ISBN10(cleaned),
			Hyphenated: hyphenate(thirteen),
		}, nil

	case 13:
		if !allDigits(cleaned[:12]) {
			return Parsed{}, errors.Validation("ISBN-13 must contain only digits")
		}
		// Comparing against the computed digit also rejects a trailing X,
		// which is never valid in the 13-form.
		if checkDigit13(cleaned[:12]) != cleaned[12] {
			return Parsed{}, errors.Validation("ISBN-13 check digit is invalid")
		}
		p := Parsed{
			ISBN13:     ISBN13(cleaned),
			Hyphenated: hyphenate(ISBN13(cleaned)),
		}
		if ten, err := ToISBN10(p.ISBN13); err == nil {
			p.ISBN10 = ten
		}
		return p, nil

	default:
		return Parsed{}, errors.Validationf("ISBN must be 10 or 13 characters, got %d", len(cleaned))
	}
}

// ToISBN13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form.
func ToISBN13(ten ISBN10) (ISBN13, error) {
	s := string(ten)
	if len(s) != 10 || !validChars10(s) {
		return "", errors.Validation("ISBN-10 must be 10 characters")
	}
	if checkDigit10(s[:9]) != s[9] {
		return "", errors.Validation("ISBN-10 check digit is invalid")
	}
	return to13(ten), nil
}

// ToISBN10 converts a 978-prefixed ISBN-13 back to its ISBN-10 form.
func ToISBN10(thirteen ISBN13) (ISBN10, error) {
	s := string(thirteen)
	if len(s) != 13 || !allDigits(s) {
		return "", errors.Validation("ISBN-13 must be 13 digits")
	}
	if !strings.HasPrefix(s, "978") {
		return "", errors.Validation("only 978-prefixed ISBN-13s have an ISBN-10 form")
	}
	body := s[3:12]
	return ISBN10(body + string(checkDigit10(body))), nil
}

// CheckDigit13 computes the mod-10 weighted check digit for the first 12
// digits of an ISBN-13.
func CheckDigit13(first12 string) (byte, error) {
	if len(first12) != 12 || !allDigits(first12) {
		return 0, errors.Validation("check digit input must be 12 digits")
	}
	return checkDigit13(first12), nil
}

func to13(ten ISBN10) ISBN13 {
	body := "978" + string(ten)[:9]
	return ISBN13(body + string(checkDigit13(body)))
}

// checkDigit13 implements the ISBN-13 rule: alternating weights 1 and 3,
// digit = (10 - sum mod 10) mod 10.
func checkDigit13(first12 string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

// checkDigit10 implements the ISBN-10 mod-11 rule; 10 is written as X.
func checkDigit10(first9 string) byte {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (10 - i) * int(first9[i]-'0')
	}
	r := (11 - sum%11) % 11
	if r == 10 {
		return 'X'
	}
	return byte('0' + r)
}

// hyphenate renders a display form. Full hyphenation needs the ISBN agency
// range tables; prefix-group-body-check is enough for display purposes.
func hyphenate(thirteen ISBN13) string {
	s := string(thirteen)
	return s[:3] + "-" + s[3:4] + "-" + s[4:12] + "-" + s[12:]
}

func clean(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// validChars10 accepts digits with X allowed only in the final position.
func validChars10(s string) bool {
	if !allDigits(s[:9]) {
		return false
	}
	last := s[9]
	return last == 'X' || (last >= '0' && last <= '9')
}
