// Package render draws the map. SVGCanvas implements layer.Canvas: the
// layer's create/update/remove stream mutates an in-memory shape table and
// Snapshot serializes it — basemap outlines first, incident circles on top,
// SMIL transitions carrying updated shapes from their previous attributes
// to the new ones.
package render

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/incident-map/internal/geo"
	"github.com/sells-group/incident-map/internal/layer"
	"github.com/sells-group/incident-map/internal/projection"
)

const (
	basemapFill   = "#f2f2f0"
	basemapStroke = "#999999"
	transitionDur = "0.3s"
)

type circle struct {
	shape layer.Shape
	// prev holds the attributes the shape transitions from; nil for
	// entering shapes, which appear at their final attributes.
	prev *layer.Shape
}

// SVGCanvas is the drawing surface. Dimensions are fixed at construction.
type SVGCanvas struct {
	width   int
	height  int
	basemap []string // one path per feature, drawn once
	circles map[string]circle
	log     *zap.Logger
}

// NewSVGCanvas creates an empty canvas of the given dimensions.
func NewSVGCanvas(width, height int) *SVGCanvas {
	return &SVGCanvas{
		width:   width,
		height:  height,
		circles: make(map[string]circle),
		log:     zap.L().With(zap.String("component", "render.svg")),
	}
}

// DrawBasemap converts every boundary feature to an outline path through
// the shared projection. A one-shot operation: it must run before the first
// incident draw so points always render on top, and repeat calls are
// ignored.
func (c *SVGCanvas) DrawBasemap(b *geo.Boundary, proj *projection.Albers) {
	if len(c.basemap) > 0 {
		c.log.Warn("basemap already drawn, ignoring repeat call")
		return
	}
	for _, f := range b.Features() {
		if d := featurePath(f, proj); d != "" {
			c.basemap = append(c.basemap, d)
		}
	}
	c.log.Debug("basemap drawn", zap.Int("paths", len(c.basemap)))
}

// Create adds an entering shape at its final attributes.
func (c *SVGCanvas) Create(s layer.Shape) {
	c.circles[s.ID] = circle{shape: s}
}

// Update transitions an existing shape from prev to next. The transition is
// declared with explicit from/to values and frozen at the target, so the
// settled document is identical however often the same update re-fires.
func (c *SVGCanvas) Update(prev, next layer.Shape) {
	c.circles[next.ID] = circle{shape: next, prev: &prev}
}

// Remove deletes an exiting shape.
func (c *SVGCanvas) Remove(id string) {
	delete(c.circles, id)
}

// WriteTo serializes the current surface as a complete SVG document.
func (c *SVGCanvas) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		c.width, c.height, c.width, c.height)

	sb.WriteString(`<g class="basemap">` + "\n")
	for _, d := range c.basemap {
		fmt.Fprintf(&sb, `<path d="%s" fill="%s" stroke="%s" stroke-width="1"/>`+"\n", d, basemapFill, basemapStroke)
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g class="incidents">` + "\n")
	for _, id := range sortedIDs(c.circles) {
		writeCircle(&sb, c.circles[id])
	}
	sb.WriteString("</g>\n</svg>\n")

	n, err := io.WriteString(w, sb.String())
	if err != nil {
		return int64(n), eris.Wrap(err, "render: write svg")
	}
	return int64(n), nil
}

// Snapshot returns the document as a string.
func (c *SVGCanvas) Snapshot() string {
	var sb strings.Builder
	_, _ = c.WriteTo(&sb)
	return sb.String()
}

func writeCircle(sb *strings.Builder, cl circle) {
	s := cl.shape
	fmt.Fprintf(sb, `<circle data-id="%s" cx="%s" cy="%s" r="%s" fill="%s" fill-opacity="%s">`,
		html.EscapeString(s.ID), num(s.X), num(s.Y), num(s.Radius), s.Fill, num(s.Opacity))
	fmt.Fprintf(sb, `<title>%s</title>`, html.EscapeString(s.Tooltip))
	if cl.prev != nil {
		writeTransition(sb, "cx", cl.prev.X, s.X)
		writeTransition(sb, "cy", cl.prev.Y, s.Y)
		writeTransition(sb, "r", cl.prev.Radius, s.Radius)
	}
	sb.WriteString("</circle>\n")
}

func writeTransition(sb *strings.Builder, attr string, from, to float64) {
	fmt.Fprintf(sb, `<animate attributeName="%s" from="%s" to="%s" dur="%s" fill="freeze"/>`,
		attr, num(from), num(to), transitionDur)
}

// featurePath builds an SVG path from a feature's rings. Rings that project
// entirely off-canvas are dropped.
func featurePath(f geo.Feature, proj *projection.Albers) string {
	var sb strings.Builder
	for _, ring := range f.Rings {
		wrote := false
		for _, pt := range ring {
			x, y := proj.Project(pt[0], pt[1])
			if projection.OffCanvas(x, y) {
				continue
			}
			if !wrote {
				fmt.Fprintf(&sb, "M%s,%s", num(x), num(y))
				wrote = true
			} else {
				fmt.Fprintf(&sb, "L%s,%s", num(x), num(y))
			}
		}
		if wrote {
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

// num formats a coordinate with fixed precision so snapshots are
// byte-stable.
func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func sortedIDs(m map[string]circle) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
