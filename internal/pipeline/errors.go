package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Build stages, in execution order.
const (
	StageIngest    = "ingest"
	StageNormalize = "normalize"
	StageValidate  = "validate"
	StageMerge     = "merge"
	StageEnrich    = "enrich"
	StageFilter    = "filter"
	StageIndex     = "index"
	StageViability = "viability"
)

// BuildError wraps a stage failure. A failed build never publishes; the
// previously published snapshot stays current.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ErrNotViable is returned when the filtered catalog has no providers or no
// models left.
var ErrNotViable = errors.New("catalog not viable")

// ValidationError identifies one schema violation.
type ValidationError struct {
	Record  string // e.g. "model openai/gpt-4o (source file:overrides.yaml)"
	Field   string // dotted path, e.g. "pricing.components[2].kind"
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Record, e.Field, e.Message)
}

// ValidationErrors aggregates every violation found in a build.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation error(s):", len(e))
	for _, ve := range e {
		b.WriteString("\n  ")
		b.WriteString(ve.Error())
	}
	return b.String()
}
