package object

import "github.com/google/uuid"

// IID names one interface's method contract.
type IID = uuid.UUID

// IIDUnknown identifies the base interface every object exposes.
var IIDUnknown = uuid.MustParse("00000000-0000-0000-C000-000000000046")

// MustIID parses a canonical textual interface id and panics on malformed
// input. Intended for package-level interface declarations.
func MustIID(text string) IID {
	return uuid.MustParse(text)
}

// NewIID returns a fresh random interface id.
func NewIID() IID {
	return uuid.New()
}
