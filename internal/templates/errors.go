package templates

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// Sentinels for errors.Is. The typed errors below match them.
var (
	ErrMissingField   = errors.New("missing required field")
	ErrArtifactExists = errors.New("artifact already exists")
	ErrOutOfOrder     = errors.New("prompt generated out of order")
	ErrUnknownKind    = errors.New("unknown document kind")
)

// MissingFieldError reports a required field that is absent, blank, of the
// wrong shape or short of its minimum item count.
type MissingFieldError struct {
	Kind    artifacts.Kind
	Field   string
	Section string
	Reason  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s document: field %q (section %q) %s", e.Kind, e.Field, e.Section, e.Reason)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// ArtifactExistsError is returned when the target file exists and
// overwrite was not requested.
type ArtifactExistsError struct {
	Path string
}

func (e *ArtifactExistsError) Error() string {
	return fmt.Sprintf("%s already exists (pass overwrite to replace it)", e.Path)
}

func (e *ArtifactExistsError) Is(target error) bool { return target == ErrArtifactExists }

// OutOfOrderError is returned when the prompt for increment Index is
// requested before the prompt for Index-1 exists.
type OutOfOrderError struct {
	Feature string
	Index   int
	Missing int
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("cannot generate prompt %d for %q: prompt for increment %d does not exist yet",
		e.Index, e.Feature, e.Missing)
}

func (e *OutOfOrderError) Is(target error) bool { return target == ErrOutOfOrder }
