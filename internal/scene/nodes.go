package scene

import "github.com/fieldview/fieldview/internal/model"

// base carries the state every node shares. Dispose of embedding nodes goes
// through release() so the idempotence check lives in one place.
type base struct {
	pose     model.Pose
	visible  bool
	disposed bool
}

func newBase() base {
	return base{pose: model.IdentityPose(), visible: true}
}

func (b *base) SetPose(p model.Pose) { b.pose = p }
func (b *base) Pose() model.Pose     { return b.pose }

func (b *base) SetVisible(v bool) { b.visible = v }
func (b *base) Visible() bool     { return b.visible }
func (b *base) Disposed() bool    { return b.disposed }

// release marks the node disposed and reports whether this call did the
// releasing, so owned buffers are freed exactly once.
func (b *base) release() bool {
	if b.disposed {
		return false
	}
	b.disposed = true
	return true
}

// Transform is a resource-free grouping node: a pose applied to children
// attached below it in the graph.
type Transform struct {
	base
}

// NewTransform creates a visible identity transform.
func NewTransform() *Transform {
	return &Transform{base: newBase()}
}

func (t *Transform) Dispose() { t.release() }

// AxisMarker draws an RGB axis triad at its pose.
type AxisMarker struct {
	base
	scale float64
	verts []float32
}

// NewAxisMarker allocates the triad geometry at the given scale.
func NewAxisMarker(scale float64) *AxisMarker {
	m := &AxisMarker{base: newBase(), scale: scale}
	m.verts = axisVertices(scale)
	return m
}

func (m *AxisMarker) Scale() float64 { return m.scale }

// SetScale rebuilds the triad geometry if the scale changed.
func (m *AxisMarker) SetScale(scale float64) {
	if scale == m.scale {
		return
	}
	m.scale = scale
	m.verts = axisVertices(scale)
}

func (m *AxisMarker) Dispose() {
	if m.release() {
		m.verts = nil
	}
}

// axisVertices returns three line segments along +X, +Y, +Z.
func axisVertices(scale float64) []float32 {
	s := float32(scale)
	return []float32{
		0, 0, 0, s, 0, 0,
		0, 0, 0, 0, s, 0,
		0, 0, 0, 0, 0, s,
	}
}

// ArrowMarker draws a single-color arrow along its pose's +X axis.
type ArrowMarker struct {
	base
	scale float64
	color model.Color
	verts []float32
}

// NewArrowMarker allocates the arrow geometry at the given scale.
func NewArrowMarker(scale float64) *ArrowMarker {
	m := &ArrowMarker{base: newBase(), scale: scale}
	m.verts = arrowVertices(scale)
	return m
}

func (m *ArrowMarker) Scale() float64 { return m.scale }

func (m *ArrowMarker) SetScale(scale float64) {
	if scale == m.scale {
		return
	}
	m.scale = scale
	m.verts = arrowVertices(scale)
}

func (m *ArrowMarker) SetColor(c model.Color) { m.color = c }
func (m *ArrowMarker) Color() model.Color     { return m.color }

func (m *ArrowMarker) Dispose() {
	if m.release() {
		m.verts = nil
	}
}

// arrowVertices returns a shaft plus a two-line head in the XY plane.
func arrowVertices(scale float64) []float32 {
	s := float32(scale)
	h := s * 0.25
	return []float32{
		0, 0, 0, s, 0, 0,
		s, 0, 0, s - h, h, 0,
		s, 0, 0, s - h, -h, 0,
	}
}

// LineStrip is a single connected line through a sequence of points, with a
// color per vertex. Geometry is replaced in place on every update; the node
// itself is created once and never recreated while its mode stays active.
type LineStrip struct {
	base
	width     float64
	positions []float32 // xyz per vertex
	colors    []float32 // rgba per vertex
	dirty     bool
}

// NewLineStrip creates an empty line of the given width.
func NewLineStrip(width float64) *LineStrip {
	return &LineStrip{base: newBase(), width: width}
}

func (l *LineStrip) Width() float64         { return l.width }
func (l *LineStrip) SetWidth(width float64) { l.width = width }

// SetGeometry swaps in the full vertex and per-vertex color lists and marks
// the node for re-upload.
func (l *LineStrip) SetGeometry(positions, colors []float32) {
	l.positions = positions
	l.colors = colors
	l.dirty = true
}

// VertexCount returns the number of line vertices.
func (l *LineStrip) VertexCount() int { return len(l.positions) / 3 }

// Positions exposes the vertex buffer (xyz per vertex).
func (l *LineStrip) Positions() []float32 { return l.positions }

// Colors exposes the per-vertex color buffer (rgba per vertex).
func (l *LineStrip) Colors() []float32 { return l.colors }

// Dirty reports whether geometry changed since the last upload.
func (l *LineStrip) Dirty() bool { return l.dirty }

// MarkClean is called by the display surface after re-upload.
func (l *LineStrip) MarkClean() { l.dirty = false }

func (l *LineStrip) Dispose() {
	if l.release() {
		l.positions = nil
		l.colors = nil
	}
}

// TextureQuad is a screen-facing quad textured with an RGBA buffer, used for
// occupancy grids. The backing buffer is recreated only when the texture
// dimensions change.
type TextureQuad struct {
	base
	width, height int
	pixels        []byte // rgba, len width*height*4
	worldScale    model.Vector3
	dirty         bool
}

// NewTextureQuad creates a quad with no backing buffer yet.
func NewTextureQuad() *TextureQuad {
	return &TextureQuad{base: newBase()}
}

func (q *TextureQuad) Width() int  { return q.width }
func (q *TextureQuad) Height() int { return q.height }

// Resize discards the backing buffer and allocates one at the new
// dimensions. Contents are undefined until the next Update.
func (q *TextureQuad) Resize(width, height int) {
	q.width = width
	q.height = height
	q.pixels = make([]byte, width*height*4)
	q.dirty = true
}

// Update copies new pixel contents into the existing buffer and marks it for
// re-upload. The buffer keeps its identity: callers must Resize first when
// dimensions change.
func (q *TextureQuad) Update(rgba []byte) {
	copy(q.pixels, rgba)
	q.dirty = true
}

// Pixels exposes the backing RGBA buffer.
func (q *TextureQuad) Pixels() []byte { return q.pixels }

// SetWorldScale sets the quad's world-space extent.
func (q *TextureQuad) SetWorldScale(s model.Vector3) { q.worldScale = s }

// WorldScale returns the quad's world-space extent.
func (q *TextureQuad) WorldScale() model.Vector3 { return q.worldScale }

// Dirty reports whether the texture needs re-upload.
func (q *TextureQuad) Dirty() bool { return q.dirty }

// MarkClean is called by the display surface after re-upload.
func (q *TextureQuad) MarkClean() { q.dirty = false }

func (q *TextureQuad) Dispose() {
	if q.release() {
		q.pixels = nil
		q.width = 0
		q.height = 0
	}
}
