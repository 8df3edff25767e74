package layer

// Tooltip is the single shared floating label. Hidden by default, it shows
// one incident's location text while the pointer stays over its shape; at
// most one tooltip is visible at a time. Position is left to the rendering
// surface (CSS overlay behavior); the layer only tracks visibility and text.
type Tooltip struct {
	visible bool
	shapeID string
	text    string
}

// NewTooltip returns a hidden tooltip.
func NewTooltip() *Tooltip { return &Tooltip{} }

// Show displays the tooltip for the given shape. Showing for a second shape
// replaces the first; there is only one label element.
func (t *Tooltip) Show(shapeID, text string) {
	t.visible = true
	t.shapeID = shapeID
	t.text = text
}

// Hide hides the tooltip and clears its content.
func (t *Tooltip) Hide() {
	t.visible = false
	t.shapeID = ""
	t.text = ""
}

// Visible reports whether the tooltip is shown.
func (t *Tooltip) Visible() bool { return t.visible }

// ShapeID returns the hovered shape's ID, or "" when hidden.
func (t *Tooltip) ShapeID() string { return t.shapeID }

// Text returns the displayed location text, or "" when hidden.
func (t *Tooltip) Text() string { return t.text }
