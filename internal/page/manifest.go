package page

import (
	"fmt"
	"path/filepath"

	"github.com/jiaxingx0718/ledstory/internal/artifact"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// CheckStory reads the manifest under artifactDir and verifies that its
// chart documents were built from story. A missing manifest or a manifest
// of another story is reported as a *MissingArtifactError.
func CheckStory(artifactDir string, story *ir.Story) (*ir.Manifest, error) {
	path := filepath.Join(artifactDir, artifact.ManifestFile)
	m, err := artifact.ReadManifest(artifactDir)
	if err != nil {
		return nil, &MissingArtifactError{Kind: "manifest", Name: artifact.ManifestFile, Path: path, Err: err}
	}
	want, err := ir.StoryHash(story)
	if err != nil {
		return nil, err
	}
	if m.Story != want {
		return nil, &MissingArtifactError{
			Kind: "manifest",
			Name: artifact.ManifestFile,
			Path: path,
			Err:  fmt.Errorf("charts were built for story %s, not %s", shortID(m.Story), shortID(want)),
		}
	}
	return m, nil
}

func shortID(id string) string {
	if id == "" {
		return "(none)"
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
