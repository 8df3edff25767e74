package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/incident-map/internal/dataset"
	"github.com/sells-group/incident-map/internal/projection"
)

// recordingCanvas captures the reconciliation command stream and mirrors
// the resulting surface state.
type recordingCanvas struct {
	ops    []string
	shapes map[string]Shape
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{shapes: make(map[string]Shape)}
}

func (c *recordingCanvas) Create(s Shape) {
	c.ops = append(c.ops, "create:"+s.ID)
	c.shapes[s.ID] = s
}

func (c *recordingCanvas) Update(prev, next Shape) {
	c.ops = append(c.ops, "update:"+next.ID)
	c.shapes[next.ID] = next
}

func (c *recordingCanvas) Remove(id string) {
	c.ops = append(c.ops, "remove:"+id)
	delete(c.shapes, id)
}

func (c *recordingCanvas) ids() []string {
	return sortedKeys(c.shapes)
}

func testCollection(t *testing.T, incidents ...dataset.Incident) *dataset.Collection {
	t.Helper()
	c, err := dataset.NewCollection(incidents)
	require.NoError(t, err)
	return c
}

func newTestLayer(t *testing.T, canvas Canvas, incidents ...dataset.Incident) *Layer {
	t.Helper()
	return New(
		testCollection(t, incidents...),
		projection.NewAlbers(960, 600),
		projection.NewRadiusScale(50, 25),
		canvas,
	)
}

var (
	incidentA = dataset.Incident{ID: "A", Location: "Killeen, Texas", Longitude: -97.7, Latitude: 31.1, Victims: 10, Year: 2015}
	incidentB = dataset.Incident{ID: "B", Location: "Reno, Nevada", Longitude: -119.8, Latitude: 39.5, Victims: 5, Year: 2016}
	incidentC = dataset.Incident{ID: "C", Location: "Orlando, Florida", Longitude: -81.4, Latitude: 28.5, Victims: 30, Year: 2016}
)

func TestSetYearScenario(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentA, incidentB)

	l.SetYear(2015)
	assert.Equal(t, []string{"A"}, l.RenderedIDs())
	assert.Equal(t, []string{"A"}, canvas.ids())

	l.SetYear(2016)
	assert.Equal(t, []string{"B"}, l.RenderedIDs())
	assert.Equal(t, []string{"B"}, canvas.ids())
	assert.Contains(t, canvas.ops, "remove:A")

	l.SetYear(1999)
	assert.Empty(t, l.RenderedIDs())
	assert.Empty(t, canvas.ids())
}

func TestSetYearReconciliationCompleteness(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentA, incidentB, incidentC)

	for _, year := range []int{2015, 2016, 2015, 1900, 2016} {
		l.SetYear(year)

		want := make([]string, 0)
		for _, in := range []dataset.Incident{incidentA, incidentB, incidentC} {
			if in.Year == year {
				want = append(want, in.ID)
			}
		}
		assert.Equal(t, want, l.RenderedIDs(), "year %d", year)
		assert.Equal(t, want, canvas.ids(), "canvas state for year %d", year)
	}
}

func TestSetYearIdempotent(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentB, incidentC)

	l.SetYear(2016)
	first := map[string]Shape{}
	for id, s := range canvas.shapes {
		first[id] = s
	}

	// Same year again: transitions re-fire as updates, final state identical.
	l.SetYear(2016)
	assert.Equal(t, first, canvas.shapes)
	assert.Contains(t, canvas.ops, "update:B")
	assert.Contains(t, canvas.ops, "update:C")
	assert.NotContains(t, canvas.ops, "remove:B")
	assert.NotContains(t, canvas.ops, "remove:C")
}

func TestSetYearEnteringShapeStyle(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentC)

	l.SetYear(2016)

	s, ok := l.Rendered("C")
	require.True(t, ok)
	assert.InDelta(t, 0.7, s.Opacity, 0.0001)
	assert.Equal(t, "#e31a1c", s.Fill)
	assert.InDelta(t, 25*0.7745966692, s.Radius, 0.001) // sqrt(30/50)*25
	assert.False(t, projection.OffCanvas(s.X, s.Y))
	assert.Equal(t, "Orlando, Florida", s.Tooltip)
}

func TestSetYearUpdatesLabel(t *testing.T) {
	var label int
	canvas := newRecordingCanvas()
	l := New(
		testCollection(t, incidentA),
		projection.NewAlbers(960, 600),
		projection.NewRadiusScale(50, 25),
		canvas,
		WithYearLabel(func(year int) { label = year }),
	)

	l.SetYear(2015)
	assert.Equal(t, 2015, label)
	assert.Equal(t, 2015, l.SelectedYear())

	// Zero-match year still updates the label.
	l.SetYear(1980)
	assert.Equal(t, 1980, label)
}

func TestHoverBindingsCoverCurrentShapes(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentA, incidentB)

	l.SetYear(2015)
	l.Hover("A")
	assert.True(t, l.TooltipState().Visible())
	assert.Equal(t, "Killeen, Texas", l.TooltipState().Text())

	l.Unhover()
	assert.False(t, l.TooltipState().Visible())

	// B is not rendered in 2015: hovering it is a no-op.
	l.Hover("B")
	assert.False(t, l.TooltipState().Visible())

	// After the year flips, the new shape's binding works and the old one
	// is gone.
	l.SetYear(2016)
	l.Hover("B")
	assert.True(t, l.TooltipState().Visible())
	assert.Equal(t, "Reno, Nevada", l.TooltipState().Text())
}

func TestHoveredShapeExitingHidesTooltip(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentA, incidentB)

	l.SetYear(2015)
	l.Hover("A")
	require.True(t, l.TooltipState().Visible())

	l.SetYear(2016)
	assert.False(t, l.TooltipState().Visible())
}

func TestTooltipSingleInstance(t *testing.T) {
	canvas := newRecordingCanvas()
	l := newTestLayer(t, canvas, incidentB, incidentC)

	l.SetYear(2016)
	l.Hover("B")
	l.Hover("C")
	assert.Equal(t, "C", l.TooltipState().ShapeID())
	assert.Equal(t, "Orlando, Florida", l.TooltipState().Text())
}
