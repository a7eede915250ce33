package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
	"github.com/jiaxingx0718/ledstory/internal/vegalite"
)

// Layout of the output directory.
const (
	ChartsDir    = "charts"
	ManifestFile = "manifest.json"
)

var documentTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="https://cdn.jsdelivr.net/npm/vega@5"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-lite@5"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-embed@6"></script>
  <style>
    body { margin: 0; }
    .error { color: red; }
  </style>
</head>
<body>
  <div id="vis"></div>
  <script type="text/javascript">
    (function(vegaEmbed) {
      var spec = {{.Spec}};
      var embedOpt = {"mode": "vega-lite"};

      function showError(el, error) {
        el.innerHTML = '<div class="error">' + error + '</div>';
        throw error;
      }
      const el = document.getElementById('vis');
      vegaEmbed("#vis", spec, embedOpt)
        .catch(error => showError(el, error));
    })(vegaEmbed);
  </script>
</body>
</html>
`))

// Writer writes chart artifacts and the run manifest under one directory.
// A Writer is used by a single goroutine.
type Writer struct {
	dir      string
	log      *logger.Logger
	mtr      *metrics.Manager
	now      func() time.Time
	manifest ir.Manifest
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(l *logger.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// WithMetrics counts written files on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(w *Writer) { w.mtr = m }
}

// WithNow replaces the clock used for the manifest timestamp.
func WithNow(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// NewWriter returns a writer for dir stamped with runID.
func NewWriter(dir, runID string, opts ...Option) *Writer {
	w := &Writer{
		dir: dir,
		log: logger.Nop(),
		now: time.Now,
		manifest: ir.Manifest{
			RunID:       runID,
			ToolVersion: ir.ToolVersion,
			IRVersion:   ir.IRVersion,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// DocumentPath returns the path of the HTML document for chart name,
// relative to the output directory.
func DocumentPath(name string) string {
	return filepath.ToSlash(filepath.Join(ChartsDir, name+".html"))
}

// SpecPath returns the path of the Vega-Lite spec for chart name,
// relative to the output directory.
func SpecPath(name string) string {
	return filepath.ToSlash(filepath.Join(ChartsDir, name+".vl.json"))
}

// WriteChart writes the spec and HTML document of chart name and records
// them in the manifest. Writing the same name twice replaces the entry.
func (w *Writer) WriteChart(name string, spec vegalite.Spec) (ir.ManifestEntry, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ir.ManifestEntry{}, fmt.Errorf("invalid chart name %q", name)
	}
	if err := os.MkdirAll(filepath.Join(w.dir, ChartsDir), 0o755); err != nil {
		return ir.ManifestEntry{}, fmt.Errorf("create charts dir: %w", err)
	}

	specJSON, err := spec.MarshalIndent()
	if err != nil {
		return ir.ManifestEntry{}, fmt.Errorf("marshal %s: %w", name, err)
	}
	id, err := ir.ArtifactID(spec)
	if err != nil {
		return ir.ManifestEntry{}, fmt.Errorf("hash %s: %w", name, err)
	}
	doc, err := RenderDocument(name, spec)
	if err != nil {
		return ir.ManifestEntry{}, err
	}

	entry := ir.ManifestEntry{
		Name:     name,
		Document: DocumentPath(name),
		Spec:     SpecPath(name),
		ID:       id,
		Bytes:    len(doc),
	}
	if err := w.writeFile(entry.Spec, specJSON, "spec"); err != nil {
		return ir.ManifestEntry{}, err
	}
	if err := w.writeFile(entry.Document, doc, "document"); err != nil {
		return ir.ManifestEntry{}, err
	}

	w.record(entry)
	w.log.Info().Str("chart", name).Str("id", id[:12]).Int("bytes", len(doc)).Msg("chart written")
	return entry, nil
}

// RenderDocument renders the self-contained HTML document of a spec.
func RenderDocument(title string, spec vegalite.Spec) ([]byte, error) {
	compact, err := compactJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", title, err)
	}
	var buf bytes.Buffer
	err = documentTemplate.Execute(&buf, struct {
		Title string
		Spec  template.JS
	}{Title: title, Spec: template.JS(compact)})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", title, err)
	}
	return buf.Bytes(), nil
}

// compactJSON marshals spec for embedding in a script element. Every "<"
// is written as \u003c, so no string in the spec can close the element or
// open a comment.
func compactJSON(spec vegalite.Spec) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(spec)); err != nil {
		return "", err
	}
	out := strings.TrimRight(buf.String(), "\n")
	return strings.ReplaceAll(out, "<", `\u003c`), nil
}

// SetPage records the assembled page in the manifest.
func (w *Writer) SetPage(rel string) {
	w.manifest.Page = filepath.ToSlash(rel)
}

// SetStory records the content hash of the story the charts were built for.
func (w *Writer) SetStory(id string) {
	w.manifest.Story = id
}

// Manifest returns a copy of the manifest as recorded so far.
func (w *Writer) Manifest() ir.Manifest {
	m := w.manifest
	m.Charts = append([]ir.ManifestEntry(nil), w.manifest.Charts...)
	return m
}

// WriteManifest stamps the manifest with the current time and writes it.
func (w *Writer) WriteManifest() (string, error) {
	w.manifest.GeneratedAt = w.now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := w.writeFile(ManifestFile, append(data, '\n'), "manifest"); err != nil {
		return "", err
	}
	return filepath.Join(w.dir, ManifestFile), nil
}

// ReadManifest loads the manifest of a previous run from dir.
func ReadManifest(dir string) (*ir.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m ir.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func (w *Writer) record(entry ir.ManifestEntry) {
	for i := range w.manifest.Charts {
		if w.manifest.Charts[i].Name == entry.Name {
			w.manifest.Charts[i] = entry
			return
		}
	}
	w.manifest.Charts = append(w.manifest.Charts, entry)
}

func (w *Writer) writeFile(rel string, data []byte, kind string) error {
	path := filepath.Join(w.dir, filepath.FromSlash(rel))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	w.mtr.ArtifactWritten(kind)
	return nil
}
