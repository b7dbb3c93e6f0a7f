package registry

import (
	"fmt"
	"math"
	"time"

	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/grid"
	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/pool"
	"github.com/fieldview/fieldview/internal/scene"
	"github.com/fieldview/fieldview/internal/settings"
)

// trolleyYawOffset orients the auxiliary attachment marker relative to the
// combined trolley/hitch heading.
const trolleyYawOffset = math.Pi

// Entry is the live state of one subscribed channel. It is allocated once,
// on the channel's first message, and mutated in place until the channel is
// unsubscribed.
type Entry struct {
	Channel     string
	ReceiveTime time.Time
	MessageTime int64 // source-reported, unix nanoseconds
	FrameID     string
	Origin      model.Pose

	last     model.Canonical
	lastGrid *model.OccupancyGrid
	rgba     []byte
	snapshot settings.Snapshot

	node        *scene.Transform
	axisPool    *pool.MarkerPool
	arrowPool   *pool.MarkerPool
	trolleyPool *pool.MarkerPool
	lineSlot    *pool.LineSlot
	texture     *grid.Texture

	disposed bool
}

func newEntry(channel string, snap settings.Snapshot) *Entry {
	return &Entry{
		Channel:  channel,
		Origin:   model.IdentityPose(),
		snapshot: snap,
		node:     scene.NewTransform(),
	}
}

// Snapshot returns the settings used on the last update.
func (e *Entry) Snapshot() settings.Snapshot { return e.snapshot }

// syncPools brings the entry's pose-sequence scene objects in line with the
// last accepted pose array under the active display mode.
func (r *Registry) syncPools(e *Entry) error {
	pa := e.last.PoseArray
	if pa == nil {
		return nil
	}
	snap := e.snapshot
	e.node.SetPose(e.Origin)
	e.node.SetVisible(snap.Visible)

	var err error
	switch snap.Mode {
	case settings.ModeAxis:
		err = r.syncAxis(e, pa, snap)
	case settings.ModeArrow:
		err = r.syncArrow(e, pa, snap)
	case settings.ModeLine:
		if e.lineSlot == nil {
			e.lineSlot = pool.NewLineSlot(r.deps.Graph, e.node)
		}
		e.lineSlot.Sync(pa, snap)
	}
	if err != nil {
		r.deps.Diagnostics.ReportError(e.Channel, diagnostics.CodePoolGrowth, err.Error())
		return err
	}

	if snap.ShowTrolley && len(e.last.TrolleyAngles) > 0 {
		if err := r.syncTrolley(e, pa, snap); err != nil {
			r.deps.Diagnostics.ReportError(e.Channel, diagnostics.CodePoolGrowth, err.Error())
			return err
		}
	} else if e.trolleyPool != nil {
		e.trolleyPool.Release()
		e.trolleyPool = nil
	}
	return nil
}

func (r *Registry) syncAxis(e *Entry, pa *model.PoseArray, snap settings.Snapshot) error {
	if e.axisPool == nil {
		e.axisPool = pool.NewMarkerPool(r.deps.Graph, e.node)
	}
	return e.axisPool.Sync(pa.Len(),
		func(i int) (pool.Child, error) {
			return scene.NewAxisMarker(snap.AxisScale), nil
		},
		func(i int, c pool.Child) {
			m := c.(*scene.AxisMarker)
			m.SetScale(snap.AxisScale)
			m.SetPose(pa.Poses[i])
		},
	)
}

func (r *Registry) syncArrow(e *Entry, pa *model.PoseArray, snap settings.Snapshot) error {
	if e.arrowPool == nil {
		e.arrowPool = pool.NewMarkerPool(r.deps.Graph, e.node)
	}
	n := pa.Len()
	return e.arrowPool.Sync(n,
		func(i int) (pool.Child, error) {
			return scene.NewArrowMarker(snap.ArrowScale), nil
		},
		func(i int, c pool.Child) {
			m := c.(*scene.ArrowMarker)
			m.SetScale(snap.ArrowScale)
			m.SetPose(pa.Poses[i])
			m.SetColor(snap.Gradient.At(model.IndexT(i, n)))
		},
	)
}

// syncTrolley positions the auxiliary attachment markers. Orientation comes
// from the two per-index angle arrays plus the fixed offset, not from the
// pose's own orientation.
func (r *Registry) syncTrolley(e *Entry, pa *model.PoseArray, snap settings.Snapshot) error {
	if e.trolleyPool == nil {
		e.trolleyPool = pool.NewMarkerPool(r.deps.Graph, e.node)
	}
	n := pa.Len()
	if len(e.last.TrolleyAngles) < n {
		n = len(e.last.TrolleyAngles)
	}
	return e.trolleyPool.Sync(n,
		func(i int) (pool.Child, error) {
			return scene.NewArrowMarker(snap.ArrowScale), nil
		},
		func(i int, c pool.Child) {
			m := c.(*scene.ArrowMarker)
			m.SetScale(snap.ArrowScale)
			yaw := e.last.TrolleyAngles[i] + trolleyYawOffset
			if i < len(e.last.HitchAngles) {
				yaw += e.last.HitchAngles[i]
			}
			m.SetPose(model.Pose{
				Position:    pa.Poses[i].Position,
				Orientation: model.QuaternionFromYaw(yaw),
			})
			m.SetColor(snap.Gradient.At(model.IndexT(i, n)))
		},
	)
}

// releaseUnusedPools frees the pools the next configuration does not use.
// The active mode's pool is then rebuilt lazily on the next sync.
func (e *Entry) releaseUnusedPools(next settings.Snapshot) {
	if next.Mode != settings.ModeAxis && e.axisPool != nil {
		e.axisPool.Release()
		e.axisPool = nil
	}
	if next.Mode != settings.ModeArrow && e.arrowPool != nil {
		e.arrowPool.Release()
		e.arrowPool = nil
	}
	if next.Mode != settings.ModeLine && e.lineSlot != nil {
		e.lineSlot.Release()
		e.lineSlot = nil
	}
	if !next.ShowTrolley && e.trolleyPool != nil {
		e.trolleyPool.Release()
		e.trolleyPool = nil
	}
}

// dispose releases everything the entry transitively owns. Safe to call
// twice: removal takes exclusive ownership of the entry.
func (e *Entry) dispose(graph scene.Graph) {
	if e.disposed {
		return
	}
	e.disposed = true

	if e.axisPool != nil {
		e.axisPool.Release()
		e.axisPool = nil
	}
	if e.arrowPool != nil {
		e.arrowPool.Release()
		e.arrowPool = nil
	}
	if e.trolleyPool != nil {
		e.trolleyPool.Release()
		e.trolleyPool = nil
	}
	if e.lineSlot != nil {
		e.lineSlot.Release()
		e.lineSlot = nil
	}
	if e.texture != nil {
		e.texture.Release()
		e.texture = nil
	}
	graph.Detach(e.node)
	e.node.Dispose()
	e.rgba = nil
	e.lastGrid = nil
	e.last = model.Canonical{}
}

// String implements fmt.Stringer for log output.
func (e *Entry) String() string {
	return fmt.Sprintf("entry(%s frame=%s mode=%s)", e.Channel, e.FrameID, e.snapshot.Mode)
}
