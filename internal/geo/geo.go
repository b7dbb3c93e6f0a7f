package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/fieldview/fieldview/internal/model"
)

// Exported trajectories are always expressed in EPSG:3857 (web mercator).
// Local map frames are metric, so a channel trajectory translates into 3857
// by offsetting against the projected anchor of the map origin.

// ErrInvalidAnchor is returned when the configured map anchor is outside
// the valid WGS84 range.
var ErrInvalidAnchor = errors.New("invalid map anchor")

// ErrEmptyTrajectory is returned when a trajectory has fewer than two poses.
var ErrEmptyTrajectory = errors.New("trajectory has fewer than two poses")

// Anchor pins the local map origin to a WGS84 coordinate.
type Anchor struct {
	Lat float64
	Lon float64
}

// Valid reports whether the anchor lies inside the WGS84 domain.
func (a Anchor) Valid() bool {
	return !math.IsNaN(a.Lat) && !math.IsNaN(a.Lon) &&
		a.Lat >= -85.06 && a.Lat <= 85.06 &&
		a.Lon >= -180 && a.Lon <= 180
}

// Coords3857From4326 projects a longitude/latitude pair into EPSG:3857.
func Coords3857From4326(longitude, latitude float64) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(longitude, latitude, 0)
	return x, y
}

// Coords4326From3857 is the inverse projection, back to longitude/latitude.
func Coords4326From3857(x, y float64) (longitude, latitude float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(3857, 4326)
	longitude, latitude, _ = f(x, y, 0)
	return longitude, latitude
}

// AnchorPoint projects the anchor into 3857 as a geometry point.
func AnchorPoint(a Anchor) (geom.Point, error) {
	if !a.Valid() {
		return geom.Point{}, ErrInvalidAnchor
	}
	x, y := Coords3857From4326(a.Lon, a.Lat)
	return geom.NewPoint(geom.Coordinates{
		XY: geom.XY{X: x, Y: y},
	}), nil
}

// TrajectoryLineString converts a pose trajectory into an EPSG:3857 line
// string. Poses are taken into world space through the channel origin before
// the anchor offset is applied.
func TrajectoryLineString(a Anchor, origin model.Pose, pa *model.PoseArray) (geom.LineString, error) {
	if !a.Valid() {
		return geom.LineString{}, ErrInvalidAnchor
	}
	if pa.Len() < 2 {
		return geom.LineString{}, ErrEmptyTrajectory
	}
	x0, y0 := Coords3857From4326(a.Lon, a.Lat)

	flat := make([]float64, 0, pa.Len()*2)
	for _, p := range pa.Poses {
		world := origin.Apply(p.Position)
		flat = append(flat, x0+world.X, y0+world.Y)
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// ExportGeoJSON renders a channel trajectory as a GeoJSON geometry document.
func ExportGeoJSON(a Anchor, origin model.Pose, pa *model.PoseArray) ([]byte, error) {
	ls, err := TrajectoryLineString(a, origin, pa)
	if err != nil {
		return nil, fmt.Errorf("failed to build trajectory line string: %w", err)
	}
	out, err := ls.AsGeometry().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trajectory geojson: %w", err)
	}
	return out, nil
}
