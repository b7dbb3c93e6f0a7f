// Package pool manages the reusable child scene objects backing a
// pose-sequence visualization. Children are arena slots indexed by pose
// position with an active-count cursor: shrinking hides, growing reuses or
// appends, and nothing live is ever recreated in place.
package pool

import (
	"fmt"

	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/scene"
	"github.com/fieldview/fieldview/internal/settings"
)

// Child is a pooled scene object positioned by a pose.
type Child interface {
	scene.Node
	SetPose(model.Pose)
}

// Factory constructs the child for a slot index on pool growth.
type Factory func(i int) (Child, error)

// Update refreshes a live child's transform and appearance in place.
type Update func(i int, c Child)

// MarkerPool is an arena of per-pose children. The slice only ever grows;
// the active cursor tracks how many leading slots are live.
type MarkerPool struct {
	graph    scene.Graph
	parent   scene.Node
	children []Child
	active   int
}

// NewMarkerPool creates an empty pool whose children attach under parent.
func NewMarkerPool(graph scene.Graph, parent scene.Node) *MarkerPool {
	return &MarkerPool{graph: graph, parent: parent}
}

// Sync resizes the pool to target children. Slots below min(existing,
// target) are updated in place and made visible; new slots are built by the
// factory and attached; slots past target are hidden but stay owned. A
// factory failure aborts growth: only the reused prefix stays live, every
// slot past it is hidden, and the error is scoped to this update only.
func (p *MarkerPool) Sync(target int, factory Factory, update Update) error {
	existing := len(p.children)

	reuse := existing
	if target < reuse {
		reuse = target
	}
	for i := 0; i < reuse; i++ {
		update(i, p.children[i])
		p.children[i].SetVisible(true)
	}

	for i := existing; i < target; i++ {
		c, err := factory(i)
		if err != nil {
			// Children appended before the failure are already attached and
			// visible; everything past the reused prefix goes dark.
			p.active = reuse
			for j := reuse; j < len(p.children); j++ {
				p.children[j].SetVisible(false)
			}
			return fmt.Errorf("growing pool to %d children: %w", target, err)
		}
		update(i, c)
		c.SetVisible(true)
		p.children = append(p.children, c)
		p.graph.Attach(c, p.parent)
	}

	for i := target; i < existing; i++ {
		p.children[i].SetVisible(false)
	}

	p.active = target
	return nil
}

// Active returns the live (visible) child count.
func (p *MarkerPool) Active() int { return p.active }

// Size returns the total owned child count, hidden slots included.
func (p *MarkerPool) Size() int { return len(p.children) }

// At returns the child in slot i.
func (p *MarkerPool) At(i int) Child { return p.children[i] }

// Release detaches and disposes every owned child and empties the arena.
// Safe to call twice.
func (p *MarkerPool) Release() {
	for _, c := range p.children {
		p.graph.Detach(c)
		c.Dispose()
	}
	p.children = nil
	p.active = 0
}

// LineSlot holds the single connected line used by line mode. The line is
// created lazily on first sync and only ever updated afterwards; switching
// away from line mode releases it.
type LineSlot struct {
	graph  scene.Graph
	parent scene.Node
	line   *scene.LineStrip
}

// NewLineSlot creates an empty slot whose line attaches under parent.
func NewLineSlot(graph scene.Graph, parent scene.Node) *LineSlot {
	return &LineSlot{graph: graph, parent: parent}
}

// Sync replaces the line's vertex list with the pose-array's positions and
// a per-vertex gradient color.
func (s *LineSlot) Sync(pa *model.PoseArray, snap settings.Snapshot) {
	if s.line == nil {
		s.line = scene.NewLineStrip(snap.LineWidth)
		s.graph.Attach(s.line, s.parent)
	}
	s.line.SetWidth(snap.LineWidth)

	n := pa.Len()
	positions := make([]float32, 0, n*3)
	colors := make([]float32, 0, n*4)
	for i, pose := range pa.Poses {
		positions = append(positions,
			float32(pose.Position.X),
			float32(pose.Position.Y),
			float32(pose.Position.Z),
		)
		c := snap.Gradient.At(model.IndexT(i, n))
		colors = append(colors, float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	}
	s.line.SetGeometry(positions, colors)
}

// Line returns the underlying node, nil before the first sync.
func (s *LineSlot) Line() *scene.LineStrip { return s.line }

// Release detaches and disposes the line. Safe to call twice.
func (s *LineSlot) Release() {
	if s.line == nil {
		return
	}
	s.graph.Detach(s.line)
	s.line.Dispose()
	s.line = nil
}
