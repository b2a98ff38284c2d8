// Package cpf validates the national patient identifier used as the patient
// key by both services. Only the textual layout 000.000.000-00 is checked;
// check digits are not verified.
package cpf

import (
	"errors"
	"regexp"
)

// Pattern is the canonical identifier layout.
const Pattern = `^\d{3}\.\d{3}\.\d{3}-\d{2}$`

var re = regexp.MustCompile(Pattern)

// ErrFormat is returned for identifiers that do not follow the canonical layout.
var ErrFormat = errors.New("CPF deve seguir o padrão XXX.XXX.XXX-XX")

// Validate returns s unchanged when it matches the canonical layout.
func Validate(s string) (string, error) {
	if !re.MatchString(s) {
		return "", ErrFormat
	}
	return s, nil
}

// Valid reports whether s matches the canonical layout.
func Valid(s string) bool {
	return re.MatchString(s)
}
