// Package layer owns the visible incident subset and reconciles its
// on-screen representation against the year filter. This is the data-join
// (enter/update/exit) core: given the keyed set of rendered shapes and the
// keyed set of desired shapes, it computes the create/update/remove diff by
// incident ID and applies it through a Canvas.
package layer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/incident-map/internal/dataset"
	"github.com/sells-group/incident-map/internal/projection"
)

// Visual constants for entering shapes.
const (
	shapeOpacity = 0.7
	shapeFill    = "#e31a1c"
)

// Shape is the full visual attribute set of one rendered incident, tagged
// with the incident's ID as the reconciliation key.
type Shape struct {
	ID      string
	X       float64
	Y       float64
	Radius  float64
	Opacity float64
	Fill    string
	Tooltip string
}

// Canvas is the rendered surface the layer reconciles against. Create adds
// an entering shape, Update transitions an existing shape from its previous
// to its next attributes, Remove deletes an exiting shape. All three are
// synchronous: when they return, the surface reflects the change.
type Canvas interface {
	Create(s Shape)
	Update(prev, next Shape)
	Remove(id string)
}

// Layer holds the ViewState (selected year) and the rendered shape set.
// All mutation goes through SetYear; no other component writes here.
type Layer struct {
	all     *dataset.Collection
	proj    *projection.Albers
	radius  projection.RadiusScale
	canvas  Canvas
	tooltip *Tooltip

	selectedYear int
	rendered     map[string]Shape
	hover        map[string]string // shape id → tooltip text binding

	onYear func(year int)
	log    *zap.Logger
}

// Option configures a Layer.
type Option func(*Layer)

// WithYearLabel registers a callback invoked with the new year on every
// SetYear, after reconciliation. This is the year label next to the slider.
func WithYearLabel(fn func(year int)) Option {
	return func(l *Layer) { l.onYear = fn }
}

// New creates a Layer over the loaded collection. Nothing is drawn until
// the first SetYear call.
func New(all *dataset.Collection, proj *projection.Albers, radius projection.RadiusScale, canvas Canvas, opts ...Option) *Layer {
	l := &Layer{
		all:      all,
		proj:     proj,
		radius:   radius,
		canvas:   canvas,
		tooltip:  NewTooltip(),
		rendered: make(map[string]Shape),
		hover:    make(map[string]string),
		log:      zap.L().With(zap.String("component", "layer")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetYear recomputes the visible subset (year equality, not range) and
// reconciles the rendered shapes against it. Synchronous: no pending work
// remains when it returns. Idempotent: repeating the same year re-fires
// update transitions but settles in the same final shape set. Never leaves
// stale shapes: every rendered ID is in the visible set afterwards.
func (l *Layer) SetYear(year int) {
	visible := l.all.ByYear(year)

	desired := make(map[string]Shape, len(visible))
	for _, in := range visible {
		desired[in.ID] = l.shapeFor(in)
	}

	var entered, updated, exited int

	// Exit: rendered but no longer desired. Sorted for a deterministic
	// canvas command sequence.
	for _, id := range sortedKeys(l.rendered) {
		if _, keep := desired[id]; !keep {
			l.canvas.Remove(id)
			delete(l.rendered, id)
			exited++
		}
	}

	// Enter + update.
	for _, id := range sortedKeys(desired) {
		next := desired[id]
		if prev, ok := l.rendered[id]; ok {
			l.canvas.Update(prev, next)
			updated++
		} else {
			l.canvas.Create(next)
			entered++
		}
		l.rendered[id] = next
	}

	l.selectedYear = year

	if l.onYear != nil {
		l.onYear(year)
	}

	l.rebindHover()

	l.log.Debug("reconciled",
		zap.Int("year", year),
		zap.Int("entered", entered),
		zap.Int("updated", updated),
		zap.Int("exited", exited),
	)
}

// shapeFor places and sizes one incident through the shared projection and
// radius scale.
func (l *Layer) shapeFor(in dataset.Incident) Shape {
	x, y := l.proj.Project(in.Longitude, in.Latitude)
	return Shape{
		ID:      in.ID,
		X:       x,
		Y:       y,
		Radius:  l.radius.Of(in.Victims),
		Opacity: shapeOpacity,
		Fill:    shapeFill,
		Tooltip: in.Location,
	}
}

// rebindHover rebuilds the hover registry for the complete current shape
// set, so newly entered shapes are covered and exited shapes drop their
// bindings. Rebinding all of them is fine at this dataset size.
func (l *Layer) rebindHover() {
	clear(l.hover)
	for id, s := range l.rendered {
		l.hover[id] = s.Tooltip
	}
	if l.tooltip.Visible() {
		if _, still := l.hover[l.tooltip.ShapeID()]; !still {
			l.tooltip.Hide()
		}
	}
}

// Hover shows the shared tooltip with the hovered shape's location text.
// Unknown IDs are ignored: only rendered shapes have hover bindings.
func (l *Layer) Hover(id string) {
	text, ok := l.hover[id]
	if !ok {
		return
	}
	l.tooltip.Show(id, text)
}

// Unhover hides the tooltip.
func (l *Layer) Unhover() { l.tooltip.Hide() }

// TooltipState returns the shared tooltip for inspection.
func (l *Layer) TooltipState() *Tooltip { return l.tooltip }

// SelectedYear returns the active year of the ViewState.
func (l *Layer) SelectedYear() int { return l.selectedYear }

// RenderedIDs returns the sorted IDs of the currently rendered shapes.
func (l *Layer) RenderedIDs() []string { return sortedKeys(l.rendered) }

// Rendered returns the shape rendered for id, if any.
func (l *Layer) Rendered(id string) (Shape, bool) {
	s, ok := l.rendered[id]
	return s, ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
