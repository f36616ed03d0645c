package refsearch

import (
	"regexp"

	rferrors "github.com/standardbeagle/refscope/internal/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateNewName checks a proposed rename target before any search is
// issued. Rejected names never reach the engine.
func ValidateNewName(name string) error {
	if name == "" {
		return rferrors.NewInvalidIdentifierError(name, "empty name")
	}
	if !identifierPattern.MatchString(name) {
		return rferrors.NewInvalidIdentifierError(name, "not a valid identifier")
	}
	return nil
}
