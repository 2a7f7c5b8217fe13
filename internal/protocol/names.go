package protocol

import (
	"fmt"
	"strings"
)

// ValidateName checks that name is a single path element safe to join onto a
// destination directory.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case strings.ContainsAny(name, "/\\\x00"):
	default:
		return nil
	}
	return fmt.Errorf("%w: %w: %q", ErrProtocol, ErrInvalidName, name)
}
