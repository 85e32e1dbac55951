package users

import (
	"errors"
	"regexp"
)

// Field-format rules for login/name/email. These run as a pre-check on
// the registration payload before any domain operation executes;
// failures surface as field-level validation errors, distinct from the
// domain error kinds.
var (
	// reLogin allows word characters plus . - _ @ after a leading word
	// character.
	reLogin = regexp.MustCompile(`^\w[\w.\-_@]+$`)

	// reName rejects control characters and markup-sensitive
	// punctuation.
	reName = regexp.MustCompile(`^[^<>&\\/]*$`)
)

const (
	msgLoginBad = "use only letters, numbers, and .-_@ please"
	msgNameBad  = "avoid non-printing characters and \\&gt;&lt;&amp;/ please"
)

// ValidateStringEquals builds an ozzo rule asserting the value matches
// expected, used for password confirmations.
func ValidateStringEquals(expected string) func(value any) error {
	return func(value any) error {
		s, ok := value.(string)
		if !ok {
			return errors.New("must be a string")
		}
		if s != expected {
			return errors.New("does not match")
		}
		return nil
	}
}
