package page

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jiaxingx0718/ledstory/internal/artifact"
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
)

// Output names under the output directory.
const (
	IndexFile = "index.html"
	AssetsDir = "assets"
)

// Options locates the inputs and outputs of page assembly.
type Options struct {
	// OutDir receives index.html and assets/.
	OutDir string

	// ArtifactDir holds charts/<name>.html. Defaults to OutDir.
	ArtifactDir string

	// AssetDir holds the story's images, resolved against image paths.
	AssetDir string

	Logger  *logger.Logger
	Metrics *metrics.Manager
}

// Result describes an assembled page.
type Result struct {
	Path   string
	Bytes  int
	Charts int
	Images int
}

type pendingImage struct {
	src, dst string
}

// Assemble renders story to <OutDir>/index.html.
//
// All chart documents and images are resolved first; the first missing one
// aborts with a *MissingArtifactError before any file is written.
func Assemble(story *ir.Story, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	artifactDir := opts.ArtifactDir
	if artifactDir == "" {
		artifactDir = opts.OutDir
	}

	data := pageData{Title: story.Title, Intro: SplitParagraphs(story.Intro)}
	var images []pendingImage
	assetNames := make(map[string]string)
	charts := 0

	for _, sec := range story.Sections {
		sd := sectionData{
			ID:         sec.ID,
			Heading:    sec.Heading,
			Paragraphs: SplitParagraphs(sec.Paragraphs),
		}
		for _, row := range sec.ImageRows {
			var rd []imageData
			for _, img := range row.Images {
				src := filepath.Join(opts.AssetDir, filepath.FromSlash(img.Path))
				if _, err := os.Stat(src); err != nil {
					return nil, &MissingArtifactError{Kind: "image", Name: img.Path, Path: src, Err: err}
				}
				name, err := assetName(assetNames, img.Path)
				if err != nil {
					return nil, err
				}
				images = append(images, pendingImage{src: src, dst: name})
				rd = append(rd, imageData{Src: path.Join(AssetsDir, name), Caption: img.Caption, Width: img.Width})
			}
			sd.ImageRows = append(sd.ImageRows, rd)
		}
		for _, ch := range sec.Charts {
			docPath := filepath.Join(artifactDir, filepath.FromSlash(artifact.DocumentPath(ch.Name)))
			doc, err := os.ReadFile(docPath)
			if err != nil {
				return nil, &MissingArtifactError{Kind: "chart", Name: ch.Name, Path: docPath, Err: err}
			}
			sd.Charts = append(sd.Charts, chartData{Name: ch.Name, Height: ch.Height, Doc: string(doc)})
			charts++
		}
		data.Sections = append(data.Sections, sd)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if len(images) > 0 {
		if err := os.MkdirAll(filepath.Join(opts.OutDir, AssetsDir), 0o755); err != nil {
			return nil, fmt.Errorf("create assets dir: %w", err)
		}
	}
	for _, img := range images {
		if err := copyFile(img.src, filepath.Join(opts.OutDir, AssetsDir, img.dst)); err != nil {
			return nil, err
		}
		opts.Metrics.ArtifactWritten("asset")
	}

	out := filepath.Join(opts.OutDir, IndexFile)
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write page: %w", err)
	}
	opts.Metrics.ArtifactWritten("page")
	opts.Metrics.PageAssembled(buf.Len())

	log.Info().Str("path", out).Int("charts", charts).Int("images", len(images)).Int("bytes", buf.Len()).Msg("page assembled")
	return &Result{Path: out, Bytes: buf.Len(), Charts: charts, Images: len(images)}, nil
}

// SplitParagraphs splits each text on blank lines and drops empty
// paragraphs. Line breaks inside a paragraph are joined with a space.
func SplitParagraphs(texts []string) []string {
	var out []string
	for _, text := range texts {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		var lines []string
		flush := func() {
			if len(lines) > 0 {
				out = append(out, strings.Join(lines, " "))
				lines = nil
			}
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				flush()
				continue
			}
			lines = append(lines, line)
		}
		flush()
	}
	return out
}

// assetName returns the file name an image is copied to. The same source
// path maps to one name; different paths with the same base name collide.
func assetName(used map[string]string, rel string) (string, error) {
	base := path.Base(filepath.ToSlash(rel))
	if prev, ok := used[base]; ok && prev != rel {
		return "", fmt.Errorf("images %q and %q share the asset name %q", prev, rel, base)
	}
	used[base] = rel
	return base, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy asset: %w", err)
	}
	return out.Close()
}
