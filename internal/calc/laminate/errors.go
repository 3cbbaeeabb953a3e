package laminate

import (
	"errors"

	"Layup/internal/calc/lamina"
)

// Errors returned by laminate construction and queries. Match with errors.Is;
// context is attached with %w wrapping.
var (
	// ErrInvalidMaterial aliases the ply-level sentinel so callers can match
	// non-physical constants without importing lamina.
	ErrInvalidMaterial = lamina.ErrInvalidMaterial

	// ErrMalformedSequence covers unparsable stacking notation and
	// angle/thickness list length mismatches.
	ErrMalformedSequence = errors.New("laminate: malformed stacking sequence")

	// ErrInvalidThickness marks a non-positive or non-finite ply thickness.
	ErrInvalidThickness = errors.New("laminate: invalid ply thickness")

	// ErrSingularSystem is returned when the assembled ABD matrix has no
	// reliable inverse.
	ErrSingularSystem = errors.New("laminate: singular stiffness matrix")

	// ErrOutOfRange is returned for a ply index outside [0, n).
	ErrOutOfRange = errors.New("laminate: ply index out of range")

	// ErrUnknownSurface is returned for a surface other than top/mid/bottom.
	ErrUnknownSurface = errors.New("laminate: unknown ply surface")
)
