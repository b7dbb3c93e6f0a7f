package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/scene"
)

func testGrid(w, h uint32, res float64) *model.OccupancyGrid {
	return &model.OccupancyGrid{
		Info: model.GridInfo{
			Resolution: res,
			Width:      w,
			Height:     h,
			Origin:     model.Pose{Position: model.Vector3{X: -1, Y: -2}, Orientation: model.IdentityQuaternion()},
		},
		Data: make([]int8, int(w)*int(h)),
	}
}

func TestTextureLazyCreation(t *testing.T) {
	graph := scene.NewMemoryGraph()
	parent := scene.NewTransform()
	tex := NewTexture(graph, parent)

	assert.Nil(t, tex.Quad())

	g := testGrid(2, 2, 0.5)
	tex.Apply(g, make([]byte, 16))

	quad := tex.Quad()
	require.NotNil(t, quad)
	assert.Same(t, parent, graph.ParentOf(quad))
	assert.Equal(t, 2, quad.Width())
	assert.Equal(t, model.Vector3{X: 1, Y: 1, Z: 1}, quad.WorldScale())
	assert.Equal(t, g.Info.Origin, quad.Pose())
}

func TestTextureBufferRetainedAcrossSameDims(t *testing.T) {
	graph := scene.NewMemoryGraph()
	tex := NewTexture(graph, scene.NewTransform())

	tex.Apply(testGrid(2, 2, 0.5), make([]byte, 16))
	quad := tex.Quad()
	buf := quad.Pixels()

	rgba := make([]byte, 16)
	rgba[0] = 0xAB
	tex.Apply(testGrid(2, 2, 0.5), rgba)

	// same node, same buffer, updated contents
	assert.Same(t, quad, tex.Quad())
	assert.Same(t, &buf[0], &quad.Pixels()[0])
	assert.Equal(t, byte(0xAB), quad.Pixels()[0])
}

func TestTextureResizeOnDimChange(t *testing.T) {
	graph := scene.NewMemoryGraph()
	tex := NewTexture(graph, scene.NewTransform())

	tex.Apply(testGrid(2, 2, 0.5), make([]byte, 16))
	quad := tex.Quad()

	tex.Apply(testGrid(4, 2, 0.5), make([]byte, 32))

	// the node survives, only the backing buffer is recreated
	assert.Same(t, quad, tex.Quad())
	assert.Equal(t, 4, quad.Width())
	assert.Len(t, quad.Pixels(), 32)
	assert.Equal(t, model.Vector3{X: 2, Y: 1, Z: 1}, quad.WorldScale())
}

func TestTextureRelease(t *testing.T) {
	graph := scene.NewMemoryGraph()
	tex := NewTexture(graph, scene.NewTransform())

	tex.Apply(testGrid(2, 2, 0.5), make([]byte, 16))
	quad := tex.Quad()

	tex.Release()
	assert.Nil(t, tex.Quad())
	assert.True(t, quad.Disposed())
	assert.False(t, graph.Contains(quad))

	tex.Release() // idempotent
}
