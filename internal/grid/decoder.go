// Package grid turns raw grid payloads into canonical occupancy grids and
// renders them to RGBA texture buffers. Payload decode is fail-soft: a
// rejected update leaves the previously accepted grid and texture in place.
package grid

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/fieldview/fieldview/internal/model"
)

// pngSignature is the fixed leading bytes of an embedded compressed image.
var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47}

// DecodeError reports a grid whose data length contradicts its dimensions.
type DecodeError struct {
	Channel  string
	Expected int
	Actual   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("channel %s: grid data length %d does not match expected %d",
		e.Channel, e.Actual, e.Expected)
}

// Decoder normalizes raw grid payloads into canonical grids.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder with only a logger dependency.
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode produces a canonical grid from a raw payload. Payloads opening with
// the PNG signature are decompressed first and their pixel bytes
// reinterpreted as signed cell values. Grids failing the width*height length
// check are rejected; zero-dimension grids with no data pass as empty.
func (d *Decoder) Decode(channel string, raw *model.RawGrid) (*model.OccupancyGrid, error) {
	data := raw.Data

	if len(data) >= 4 && bytes.Equal(data[:4], pngSignature) {
		decoded, err := decodeEmbeddedPNG(data)
		if err != nil {
			return nil, fmt.Errorf("channel %s: decoding embedded image: %w", channel, err)
		}
		d.logger.Debug("decoded embedded grid image",
			"channel", channel, "compressed", len(data), "cells", len(decoded))
		data = decoded
	}

	expected := int(raw.Info.Width) * int(raw.Info.Height)
	if len(data) != expected {
		return nil, &DecodeError{Channel: channel, Expected: expected, Actual: len(data)}
	}

	cells := make([]int8, len(data))
	for i, b := range data {
		cells[i] = int8(b)
	}

	return &model.OccupancyGrid{
		Header: raw.Header,
		Info:   raw.Info,
		Data:   cells,
	}, nil
}

// decodeEmbeddedPNG decompresses the payload and returns its raw pixel
// bytes, one byte per cell.
func decodeEmbeddedPNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if g, ok := img.(*image.Gray); ok && g.Stride == g.Rect.Dx() {
		return g.Pix, nil
	}
	// Non-grayscale encodings are flattened to one byte per pixel.
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray.Pix, nil
}

// UnpackCostmap expands the vendor 2-bit packed cell stream: for cell index
// k, the containing byte is k/4 and the field sits at bit offset
// 6 - (k%4)*2, masked to two bits. The layout is a compatibility contract;
// do not reorder.
func UnpackCostmap(packed []byte, cells int) []byte {
	out := make([]byte, cells)
	for k := 0; k < cells; k++ {
		byteIdx := k / 4
		if byteIdx >= len(packed) {
			break
		}
		shift := uint(6 - (k%4)*2)
		out[k] = (packed[byteIdx] >> shift) & 0x03
	}
	return out
}
