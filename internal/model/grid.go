package model

import "fmt"

// GridInfo describes the geometry of an occupancy grid.
type GridInfo struct {
	Resolution float64 `json:"resolution"` // meters per cell
	Width      uint32  `json:"width"`      // cells
	Height     uint32  `json:"height"`     // cells
	Origin     Pose    `json:"origin"`     // pose of cell (0,0) in the grid's frame
}

// OccupancyGrid is the canonical grid form used downstream of all per-source
// adapters. Data holds one signed byte per cell, row-major from the origin.
type OccupancyGrid struct {
	Header Header `json:"header"`
	Info   GridInfo
	Data   []int8
}

// CellCount returns width*height.
func (g *OccupancyGrid) CellCount() int {
	return int(g.Info.Width) * int(g.Info.Height)
}

// Validate rejects grids whose data length does not match width*height.
// A zero-dimension grid with no data is a valid empty grid.
func (g *OccupancyGrid) Validate() error {
	if len(g.Data) != g.CellCount() {
		return fmt.Errorf("grid data length %d does not match %dx%d (%d cells)",
			len(g.Data), g.Info.Width, g.Info.Height, g.CellCount())
	}
	return nil
}
