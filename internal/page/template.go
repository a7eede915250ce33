package page

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { font-family: "Source Sans Pro", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
    .custom-text { font-size: 16px; color: gray; }
    .image-row { display: flex; gap: 1rem; justify-content: center; margin: 1rem 0; }
    figure { margin: 0; text-align: center; }
    figcaption { font-size: 14px; color: gray; }
    iframe { width: 100%; border: none; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
{{- range .Intro}}
  <p class="custom-text">{{.}}</p>
{{- end}}
{{- range .Sections}}
  <section id="{{.ID}}">
    <h3>{{.Heading}}</h3>
  {{- range .Paragraphs}}
    <p>{{.}}</p>
  {{- end}}
  {{- range .ImageRows}}
    <div class="image-row">
    {{- range .}}
      <figure>
        <img src="{{.Src}}" alt="{{.Caption}}"{{if .Width}} width="{{.Width}}"{{end}}>
        {{- if .Caption}}
        <figcaption>{{.Caption}}</figcaption>
        {{- end}}
      </figure>
    {{- end}}
    </div>
  {{- end}}
  {{- range .Charts}}
    <iframe title="{{.Name}}" height="{{.Height}}" srcdoc="{{.Doc}}"></iframe>
  {{- end}}
  </section>
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title    string
	Intro    []string
	Sections []sectionData
}

type sectionData struct {
	ID         string
	Heading    string
	Paragraphs []string
	ImageRows  [][]imageData
	Charts     []chartData
}

type imageData struct {
	Src     string
	Caption string
	Width   int
}

type chartData struct {
	Name   string
	Height int
	Doc    string
}
