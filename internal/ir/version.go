package ir

// Version constants for generated artifacts.
const (
	// IRVersion is the chart IR schema version recorded in manifests.
	IRVersion = "1"

	// ToolVersion is the ledstory generator version.
	ToolVersion = "0.3.0"

	// VegaLiteSchema is the Vega-Lite schema URL written into every chart spec.
	VegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"
)
