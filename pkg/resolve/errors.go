package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Resolution errors.
var (
	ErrSchemaNotFound    = errors.New("schema not found")
	ErrCircularExtension = errors.New("circular schema extension")
	ErrMissingAPIKey     = errors.New("no API key provided for the engine schema source")
	ErrUnknownSource     = errors.New("unknown schema source")
	ErrNoBaseSchema      = errors.New("extended schema resolved to no schema")
	ErrNoFetcher         = errors.New("no schema fetcher configured")
)

// LookupError reports a reference to a schema dependency that is not
// declared in the configuration.
type LookupError struct {
	// Name is the missing dependency.
	Name string
	// Referrer is the dependency or document set holding the reference.
	Referrer string
}

func (e *LookupError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("%s: %q", ErrSchemaNotFound, e.Name)
	}
	return fmt.Sprintf("%s: %q (referenced by %s)", ErrSchemaNotFound, e.Name, e.Referrer)
}

func (e *LookupError) Unwrap() error { return ErrSchemaNotFound }

// CycleError reports an extends chain that revisits a dependency. Chain
// lists the names in visiting order and ends with the repeated one.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCircularExtension, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCircularExtension }

// UnknownSourceError reports a source override outside the known set.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("%s %q (expected %q)", ErrUnknownSource, e.Source, SourceEngine)
}

func (e *UnknownSourceError) Unwrap() error { return ErrUnknownSource }
