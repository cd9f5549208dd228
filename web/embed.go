// Package web carries the HTML index page and its assets.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates static
var FS embed.FS

func Templates() (*template.Template, error) {
	return template.ParseFS(FS, "templates/*.html")
}
