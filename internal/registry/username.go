package registry

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// usernamePattern accepts filesystem-safe names: letters, digits, dot,
// underscore and dash, not starting with a dot or dash.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

const maxUsernameLen = 64

// NormalizeUsername canonicalizes a username (NFC, trimmed) and validates
// that it is safe to use as a filename stem. Returns ErrInvalidUsername for
// empty or unsafe names.
func NormalizeUsername(username string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(username))
	if name == "" || len(name) > maxUsernameLen {
		return "", ErrInvalidUsername
	}
	if !usernamePattern.MatchString(name) {
		return "", ErrInvalidUsername
	}
	return name, nil
}
