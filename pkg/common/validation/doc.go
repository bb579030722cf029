// Package validation provides argument validation helpers shared by the
// seqflow packages.
//
// Every helper returns a *errors.ValidationError, which matches
// errors.ErrInvalidArgument, so stage constructors and configuration
// parsers report illegal arguments the same way.
package validation
