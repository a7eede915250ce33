// Package page assembles the narrative page and serves the generated site.
//
// Assemble renders the story in a fixed order (title, intro, sections)
// and inlines every chart document verbatim into an iframe srcdoc. Every
// chart and image is checked before anything is written, so a missing
// artifact leaves the output directory untouched.
package page
