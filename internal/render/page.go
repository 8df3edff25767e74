package render

import (
	_ "embed"
	"html/template"
	"io"

	"github.com/rotisserie/eris"
)

//go:embed page.tmpl
var pageTmpl string

var page = template.Must(template.New("page").Parse(pageTmpl))

// PageData parameterizes the hosting page. The slider is bounded by the
// incident years and starts at the latest year; every interactive change
// swaps the map source, which is a full SetYear on the serving side — no
// debouncing.
type PageData struct {
	Width  int
	Height int

	MinYear int
	MaxYear int
	// Year is the initially selected year.
	Year int

	// SrcPrefix and SrcSuffix bracket the year in the per-year map source:
	// "/map.svg?year=" + year when serving, "map-" + year + ".svg" for
	// static output.
	SrcPrefix string
	SrcSuffix string
}

// WritePage renders the slider page.
func WritePage(w io.Writer, data PageData) error {
	if err := page.Execute(w, data); err != nil {
		return eris.Wrap(err, "render: execute page template")
	}
	return nil
}
