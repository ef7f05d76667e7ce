package ui

import (
	_ "embed"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed docs/methodology.md
var methodologySrc []byte

// renderMethodology converts the embedded methodology page to a
// standalone HTML document. Rendered once at startup.
func renderMethodology() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Forecast Methodology",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(methodologySrc, p, renderer)
}