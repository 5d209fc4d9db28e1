package resolver

import (
	"regexp"
	"strings"
)

// Address is a street and house number extracted from complaint text.
type Address struct {
	Street string
	Number string
}

// streetPattern matches Ukrainian street mentions such as
// "вулиця Лева, 42", "вул. Городоцька 174" or "проспект Свободи, 1а".
// Street words must be capitalized so surrounding prose is not
// swallowed into the name.
var streetPattern = regexp.MustCompile(
	`(?i:вулиц[яіею]|вул\.?|проспект[іу]?|просп\.|площ[аіу]|пл\.|бульвар[іу]?|бульв\.)\s+` +
		`([А-ЯІЇЄҐ][а-яіїєґА-ЯІЇЄҐ'’-]*(?:\s+[А-ЯІЇЄҐ][а-яіїєґА-ЯІЇЄҐ'’-]*)*)` +
		`(?:\s*,?\s*(\d+[А-Яа-яІіЇїЄєҐґ]?))?`)

var houseNumberDigits = regexp.MustCompile(`\d+`)

// ParseAddress extracts the first street mention from a complaint.
// Returns nil when no address is present.
func ParseAddress(text string) *Address {
	match := streetPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	street := strings.TrimSpace(match[1])
	if street == "" {
		return nil
	}

	addr := &Address{Street: street}
	if len(match) > 2 && match[2] != "" {
		// The catalog keys buildings by bare digits.
		addr.Number = houseNumberDigits.FindString(match[2])
	}
	return addr
}

// HasNumber reports whether a house number was extracted.
func (a *Address) HasNumber() bool {
	return a != nil && a.Number != ""
}
