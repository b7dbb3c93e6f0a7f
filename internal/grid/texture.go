package grid

import (
	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/scene"
)

// Texture owns a channel's textured quad. The quad is created lazily on the
// first accepted grid; its backing buffer is recreated only when the grid
// dimensions change and updated in place otherwise.
type Texture struct {
	graph  scene.Graph
	parent scene.Node

	quad   *scene.TextureQuad
	width  uint32
	height uint32
}

// NewTexture creates an empty texture slot attaching under parent.
func NewTexture(graph scene.Graph, parent scene.Node) *Texture {
	return &Texture{graph: graph, parent: parent}
}

// Apply uploads an accepted grid's RGBA rendering. World scale is set to
// (resolution*width, resolution*height, 1) on every accepted update and the
// quad takes the grid origin as its pose.
func (t *Texture) Apply(g *model.OccupancyGrid, rgba []byte) {
	if t.quad == nil {
		t.quad = scene.NewTextureQuad()
		t.graph.Attach(t.quad, t.parent)
	}

	if g.Info.Width != t.width || g.Info.Height != t.height {
		t.quad.Resize(int(g.Info.Width), int(g.Info.Height))
		t.width = g.Info.Width
		t.height = g.Info.Height
	}
	t.quad.Update(rgba)

	t.quad.SetPose(g.Info.Origin)
	t.quad.SetWorldScale(model.Vector3{
		X: g.Info.Resolution * float64(g.Info.Width),
		Y: g.Info.Resolution * float64(g.Info.Height),
		Z: 1,
	})
}

// Quad returns the underlying node, nil before the first accepted grid.
func (t *Texture) Quad() *scene.TextureQuad { return t.quad }

// Release detaches and disposes the quad. Safe to call twice.
func (t *Texture) Release() {
	if t.quad == nil {
		return
	}
	t.graph.Detach(t.quad)
	t.quad.Dispose()
	t.quad = nil
	t.width = 0
	t.height = 0
}
