package web

import (
	"embed"
	"html/template"
	"io/fs"
	"os"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the HTML pages. TEMPLATES_DIR serves them from disk
// during development.
func Templates() (*template.Template, error) {
	var files fs.FS = templateFS
	pattern := "templates/*.html"
	if dir := os.Getenv("TEMPLATES_DIR"); dir != "" {
		files = os.DirFS(dir)
		pattern = "*.html"
	}
	return template.ParseFS(files, pattern)
}
