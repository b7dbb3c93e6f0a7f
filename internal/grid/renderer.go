package grid

import "github.com/fieldview/fieldview/internal/model"

// Well-known channel names with dedicated palettes. Grid cell values on
// these channels are categorical map-annotation codes, not occupancy
// probabilities, so rendering uses fixed lookup rules rather than a
// continuous intensity ramp.
const (
	TrafficChannel = "traffic_map"
	OneWayChannel  = "one_way_map"
)

// Palette maps one raw cell value to an RGBA color.
type Palette func(v int8) [4]uint8

// Renderer converts canonical grids to RGBA buffers, selecting the palette
// by channel name through an explicit dispatch table.
type Renderer struct {
	byChannel map[string]Palette
	fallback  Palette
}

// NewRenderer creates a renderer with the built-in palette table.
func NewRenderer() *Renderer {
	return &Renderer{
		byChannel: map[string]Palette{
			TrafficChannel: TrafficPalette,
			OneWayChannel:  OneWayPalette,
		},
		fallback: DefaultPalette,
	}
}

// RegisterPalette binds a palette to a channel name, replacing any previous
// binding.
func (r *Renderer) RegisterPalette(channel string, p Palette) {
	r.byChannel[channel] = p
}

// PaletteFor returns the palette the renderer will use for a channel.
func (r *Renderer) PaletteFor(channel string) Palette {
	if p, ok := r.byChannel[channel]; ok {
		return p
	}
	return r.fallback
}

// Render fills dst with the RGBA rendering of the grid, reusing dst's
// backing array when it is large enough. The returned buffer is always
// exactly width*height*4 bytes.
func (r *Renderer) Render(g *model.OccupancyGrid, channel string, dst []byte) []byte {
	need := g.CellCount() * 4
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]

	pal := r.PaletteFor(channel)
	for i, v := range g.Data {
		c := pal(v)
		o := i * 4
		dst[o] = c[0]
		dst[o+1] = c[1]
		dst[o+2] = c[2]
		dst[o+3] = c[3]
	}
	return dst
}

// TrafficPalette renders the traffic map: 0 is translucent green (open),
// 100 translucent blue (restricted), anything else fully transparent.
func TrafficPalette(v int8) [4]uint8 {
	switch v {
	case 0:
		return [4]uint8{0x00, 0xC8, 0x00, 0x80}
	case 100:
		return [4]uint8{0x00, 0x50, 0xFF, 0x80}
	}
	return [4]uint8{}
}

// oneWayAlpha is the fixed translucency of one-way wedges.
const oneWayAlpha = 0x99

// oneWayWedges maps each 45-degree heading wedge to its mask and the color
// channel bits it contributes. Bits combine across wedges. The mask/bit
// assignment is a compatibility contract with the producing vendor stack;
// do not "fix" it without a live data sample.
var oneWayWedges = [8]struct {
	mask    uint8
	r, g, b bool
}{
	{0x01, true, false, false}, // 0 deg
	{0x02, true, true, false},  // 45 deg
	{0x04, false, true, false}, // 90 deg
	{0x08, false, true, true},  // 135 deg
	{0x10, false, false, true}, // 180 deg
	{0x20, true, false, true},  // 225 deg
	{0x40, true, true, true},   // 270 deg
	{0x80, true, false, false}, // 315 deg
}

// OneWayPalette renders the one-way map: each set wedge bit contributes its
// color channels at full intensity; alpha is fully transparent only for the
// raw value 255.
func OneWayPalette(v int8) [4]uint8 {
	raw := uint8(v)
	if raw == 0xFF {
		return [4]uint8{}
	}
	var c [4]uint8
	c[3] = oneWayAlpha
	for _, w := range oneWayWedges {
		if raw&w.mask != w.mask {
			continue
		}
		if w.r {
			c[0] = 0xFF
		}
		if w.g {
			c[1] = 0xFF
		}
		if w.b {
			c[2] = 0xFF
		}
	}
	return c
}

// defaultTable is the exact-value lookup used by channels without a
// dedicated palette. Values are map-annotation codes.
var defaultTable = map[uint8][4]uint8{
	0:   {0x80, 0x80, 0x80, 0x33},
	224: {0xE6, 0x2A, 0x2A, 0xCC},
	192: {0xF2, 0x8C, 0x28, 0xCC},
	96:  {0x2A, 0x7F, 0xE6, 0x99},
	95:  {0x30, 0xC8, 0xC8, 0x99},
}

// DefaultPalette renders known annotation codes to their fixed colors and
// everything else fully transparent.
func DefaultPalette(v int8) [4]uint8 {
	if c, ok := defaultTable[uint8(v)]; ok {
		return c
	}
	return [4]uint8{}
}
