// Package web embeds the map page, its fragment templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates holds the page and fragment templates.
var Templates fs.FS = files

// TemplatePatterns are the globs parsed into the renderer.
var TemplatePatterns = []string{"templates/*.html", "templates/fragments/*.html"}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
