// Package web holds the server-rendered pages of the quiz UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templates embed.FS

// NewViews returns the template engine used by the fiber app. Pages are
// rendered inside "layouts/main".
func NewViews() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("inc", func(i int) int { return i + 1 })
	engine.AddFunc("letter", func(i int) string { return string(rune('A' + i)) })
	return engine
}
