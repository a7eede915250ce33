package page

import (
	"errors"
	"fmt"
)

// MissingArtifactError reports a chart document or image that the story
// references but that does not exist.
type MissingArtifactError struct {
	Kind string // "chart", "image" or "manifest"
	Name string
	Path string
	Err  error
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing %s %q at %s: %v", e.Kind, e.Name, e.Path, e.Err)
}

func (e *MissingArtifactError) Unwrap() error { return e.Err }

// IsMissingArtifact reports whether err is a MissingArtifactError.
func IsMissingArtifact(err error) bool {
	var me *MissingArtifactError
	return errors.As(err, &me)
}
