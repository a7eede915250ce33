// Package artifact writes compiled charts to disk.
//
// Each chart becomes two files under <out>/charts: the indented Vega-Lite
// spec (<name>.vl.json) and a self-contained HTML document (<name>.html)
// that loads vega, vega-lite and vega-embed from a CDN and embeds the spec
// verbatim. The run's manifest.json lists every document with its
// content-addressed ID.
package artifact
