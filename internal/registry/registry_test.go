package registry

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/grid"
	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/internal/scene"
	"github.com/fieldview/fieldview/internal/settings"
)

// stubSettings is a SettingsSource with in-memory layers.
type stubSettings struct {
	global    settings.Partial
	overrides map[string]settings.Partial
}

func (s *stubSettings) GlobalDefaults() settings.Partial { return s.global }
func (s *stubSettings) Override(channel string) settings.Partial {
	return s.overrides[channel]
}

// stubArchive records calls and can be told to fail.
type stubArchive struct {
	trajectories int
	grids        int
	fail         bool
}

func (a *stubArchive) RecordTrajectory(string, *model.PoseArray) error {
	a.trajectories++
	if a.fail {
		return errors.New("archive unavailable")
	}
	return nil
}

func (a *stubArchive) RecordGrid(string, *model.OccupancyGrid) error {
	a.grids++
	if a.fail {
		return errors.New("archive unavailable")
	}
	return nil
}

type testEnv struct {
	registry *Registry
	graph    *scene.MemoryGraph
	errors   *diagnostics.Recorder
	settings *stubSettings
	archive  *stubArchive
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		graph:    scene.NewMemoryGraph(),
		errors:   diagnostics.NewRecorder(),
		settings: &stubSettings{overrides: map[string]settings.Partial{}},
		archive:  &stubArchive{},
	}
	r, err := New(Dependencies{
		Graph:       env.graph,
		Settings:    env.settings,
		Diagnostics: env.errors,
		Logger:      slog.Default(),
		Decoder:     grid.NewDecoder(slog.Default()),
		Renderer:    grid.NewRenderer(),
		Archive:     env.archive,
	})
	require.NoError(t, err)
	env.registry = r
	return env
}

func poseArray(n int) model.Canonical {
	poses := make([]model.Pose, n)
	for i := range poses {
		poses[i] = model.Pose{
			Position:    model.Vector3{X: float64(i)},
			Orientation: model.IdentityQuaternion(),
		}
	}
	return model.Canonical{PoseArray: &model.PoseArray{
		Header: model.Header{Stamp: 1000, FrameID: "map"},
		Poses:  poses,
	}}
}

func gridMsg(w, h uint32, data []byte) model.Canonical {
	return model.Canonical{Grid: &model.RawGrid{
		Header: model.Header{Stamp: 2000, FrameID: "map"},
		Info:   model.GridInfo{Resolution: 0.5, Width: w, Height: h, Origin: model.IdentityPose()},
		Data:   data,
	}}
}

func now() time.Time { return time.Unix(1700000000, 0) }

func TestUpsertCreatesEntryLazily(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	assert.Equal(t, 0, r.Len())

	r.Upsert("poses", poseArray(3), now())

	require.Equal(t, 1, r.Len())
	e := r.entries["poses"]
	assert.Equal(t, "map", e.FrameID)
	assert.Equal(t, int64(1000), e.MessageTime)
	assert.True(t, env.graph.Contains(e.node))
	assert.Same(t, r.root, env.graph.ParentOf(e.node))
	// default visibility is off until settings enable it
	assert.False(t, e.node.Visible())
	require.NotNil(t, e.axisPool)
	assert.Equal(t, 3, e.axisPool.Active())
}

func TestUpsertMutatesEntryInPlace(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("poses", poseArray(3), now())
	e := r.entries["poses"]
	child := e.axisPool.At(0)

	r.Upsert("poses", poseArray(5), now())

	assert.Equal(t, 1, r.Len())
	assert.Same(t, e, r.entries["poses"])
	// arena identity is stable across growth
	assert.Same(t, child, e.axisPool.At(0))
	assert.Equal(t, 5, e.axisPool.Active())

	r.Upsert("poses", poseArray(2), now())
	assert.Equal(t, 2, e.axisPool.Active())
	assert.Equal(t, 5, e.axisPool.Size())
}

func TestUpsertAppliesChannelOverrides(t *testing.T) {
	env := newTestEnv(t)
	mode := settings.ModeLine
	visible := true
	env.settings.overrides["plan"] = settings.Partial{Mode: &mode, Visible: &visible}

	env.registry.Upsert("plan", poseArray(4), now())

	e := env.registry.entries["plan"]
	assert.True(t, e.node.Visible())
	assert.Nil(t, e.axisPool)
	require.NotNil(t, e.lineSlot)
	assert.Equal(t, 4, e.lineSlot.Line().VertexCount())
}

func TestRemoveChannelDisposesEverything(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("poses", poseArray(3), now())
	e := r.entries["poses"]
	child := e.axisPool.At(1)
	node := e.node

	r.RemoveChannel("poses")

	assert.Equal(t, 0, r.Len())
	assert.True(t, node.Disposed())
	assert.True(t, child.Disposed())
	assert.False(t, env.graph.Contains(node))
	// only the registry root remains attached
	assert.Equal(t, 1, env.graph.Len())

	// unknown and repeated removals are no-ops
	r.RemoveChannel("poses")
	r.RemoveChannel("never_seen")
}

func TestModeSwitchReleasesOldPool(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("poses", poseArray(3), now())
	e := r.entries["poses"]
	axisChild := e.axisPool.At(0)

	lineMode := settings.ModeLine
	r.SettingsChangedFor("poses", settings.Partial{Mode: &lineMode})

	assert.Nil(t, e.axisPool)
	assert.True(t, axisChild.Disposed())
	// resync rebuilt line state from the last accepted payload
	require.NotNil(t, e.lineSlot)
	assert.Equal(t, 3, e.lineSlot.Line().VertexCount())

	arrowMode := settings.ModeArrow
	r.SettingsChangedFor("poses", settings.Partial{Mode: &arrowMode})
	assert.Nil(t, e.lineSlot)
	require.NotNil(t, e.arrowPool)
	assert.Equal(t, 3, e.arrowPool.Active())

	axisMode := settings.ModeAxis
	r.SettingsChangedFor("poses", settings.Partial{Mode: &axisMode})
	assert.Nil(t, e.arrowPool)
	require.NotNil(t, e.axisPool)
	// the old axis pool was released on the way out: this is a fresh child
	assert.NotSame(t, axisChild, e.axisPool.At(0))
}

func TestAppearanceChangeReappliesInPlace(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("poses", poseArray(3), now())
	e := r.entries["poses"]
	child := e.axisPool.At(0).(*scene.AxisMarker)
	require.Equal(t, settings.DefaultAxisScale, child.Scale())

	scale := 1.5
	r.SettingsChangedFor("poses", settings.Partial{AxisScale: &scale})

	// same pool, same child, new scale
	assert.Same(t, child, e.axisPool.At(0))
	assert.Equal(t, 1.5, child.Scale())
}

func TestVisibilityToggleKeepsResources(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("poses", poseArray(3), now())
	e := r.entries["poses"]
	child := e.axisPool.At(0)

	visible := true
	r.SettingsChangedFor("poses", settings.Partial{Visible: &visible})
	assert.True(t, e.node.Visible())
	assert.Same(t, child, e.axisPool.At(0))

	visible = false
	r.SettingsChangedFor("poses", settings.Partial{Visible: &visible})
	assert.False(t, e.node.Visible())
	assert.False(t, child.Disposed())
}

func TestSettingsChangeForUnknownChannelIsNoop(t *testing.T) {
	env := newTestEnv(t)
	mode := settings.ModeLine
	env.registry.SettingsChangedFor("never_seen", settings.Partial{Mode: &mode})
	assert.Equal(t, 0, env.registry.Len())
}

func TestSettingsChangeIsolatedToChannel(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("a", poseArray(2), now())
	r.Upsert("b", poseArray(2), now())
	otherChild := r.entries["b"].axisPool.At(0)

	mode := settings.ModeLine
	r.SettingsChangedFor("a", settings.Partial{Mode: &mode})

	assert.NotNil(t, r.entries["a"].lineSlot)
	assert.Same(t, otherChild, r.entries["b"].axisPool.At(0))
	assert.False(t, otherChild.Disposed())
}

func TestGridAcceptCreatesTexture(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("map", gridMsg(2, 2, []byte{0, 100, 255, 0}), now())

	e := r.entries["map"]
	require.NotNil(t, e.texture)
	quad := e.texture.Quad()
	require.NotNil(t, quad)
	assert.Equal(t, 2, quad.Width())
	assert.Equal(t, model.Vector3{X: 1, Y: 1, Z: 1}, quad.WorldScale())
	assert.Equal(t, 4, e.lastGrid.CellCount())
	assert.Equal(t, 1, env.archive.grids)
}

func TestGridRejectionKeepsLastAccepted(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("map", gridMsg(2, 2, []byte{0, 0, 0, 0}), now())
	e := r.entries["map"]
	quad := e.texture.Quad()
	accepted := e.lastGrid

	// wrong payload length for the declared dimensions
	r.Upsert("map", gridMsg(4, 4, make([]byte, 15)), now())

	// the previous grid and its texture survive untouched
	assert.Same(t, accepted, e.lastGrid)
	assert.Same(t, quad, e.texture.Quad())
	assert.Equal(t, 2, quad.Width())
	require.Equal(t, 1, env.errors.CountFor("map"))
	entry := env.errors.Entries()[0]
	assert.Equal(t, diagnostics.CodeMalformedGrid, entry.Code)
	assert.Contains(t, entry.Message, "16")
	assert.Contains(t, entry.Message, "15")
	// only the accepted update reached the archive
	assert.Equal(t, 1, env.archive.grids)
}

func TestGridRejectionBeforeFirstAccept(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("map", gridMsg(4, 4, make([]byte, 15)), now())

	e := r.entries["map"]
	// entry exists (subscription implies lifecycle) but shows nothing
	assert.Nil(t, e.lastGrid)
	assert.Nil(t, e.texture)
	assert.Equal(t, 1, env.errors.CountFor("map"))
}

func TestGridResizeOnDimChange(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("map", gridMsg(2, 2, make([]byte, 4)), now())
	e := r.entries["map"]
	quad := e.texture.Quad()

	r.Upsert("map", gridMsg(4, 2, make([]byte, 8)), now())
	assert.Same(t, quad, e.texture.Quad())
	assert.Equal(t, 4, quad.Width())
	assert.Len(t, quad.Pixels(), 32)
}

func TestTrolleyPoolFollowsAngles(t *testing.T) {
	env := newTestEnv(t)
	show := true
	env.settings.overrides["state"] = settings.Partial{ShowTrolley: &show}
	r := env.registry

	msg := poseArray(3)
	msg.TrolleyAngles = []float64{0.5, 0.6} // shorter than the pose list
	msg.HitchAngles = []float64{0.1}
	r.Upsert("state", msg, now())

	e := r.entries["state"]
	require.NotNil(t, e.trolleyPool)
	// trolley count is bounded by the angle array
	assert.Equal(t, 2, e.trolleyPool.Active())

	m := e.trolleyPool.At(0).(*scene.ArrowMarker)
	want := model.QuaternionFromYaw(0.5 + 0.1 + math.Pi)
	assert.InDelta(t, want.Z, m.Pose().Orientation.Z, 1e-9)
	assert.InDelta(t, want.W, m.Pose().Orientation.W, 1e-9)

	// second pose has no hitch angle
	m1 := e.trolleyPool.At(1).(*scene.ArrowMarker)
	want1 := model.QuaternionFromYaw(0.6 + math.Pi)
	assert.InDelta(t, want1.Z, m1.Pose().Orientation.Z, 1e-9)

	// a message without angles releases the trolley pool
	r.Upsert("state", poseArray(3), now())
	assert.Nil(t, e.trolleyPool)
	assert.True(t, m.Disposed())
}

func TestArchiveFailureDoesNotAffectRendering(t *testing.T) {
	env := newTestEnv(t)
	env.archive.fail = true
	r := env.registry

	r.Upsert("poses", poseArray(3), now())

	e := r.entries["poses"]
	require.NotNil(t, e.axisPool)
	assert.Equal(t, 3, e.axisPool.Active())
	assert.Equal(t, 1, env.archive.trajectories)
}

func TestStatsAndTrajectory(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("b_poses", poseArray(3), now())
	r.Upsert("a_map", gridMsg(2, 2, make([]byte, 4)), now())

	assert.Equal(t, []string{"a_map", "b_poses"}, r.Channels())

	stats := r.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "a_map", stats[0].Channel)
	assert.Equal(t, 4, stats[0].GridCells)
	assert.Equal(t, "b_poses", stats[1].Channel)
	assert.Equal(t, 3, stats[1].Poses)

	_, pa, ok := r.TrajectoryFor("b_poses")
	require.True(t, ok)
	assert.Equal(t, 3, pa.Len())

	_, _, ok = r.TrajectoryFor("a_map")
	assert.False(t, ok)
	_, _, ok = r.TrajectoryFor("missing")
	assert.False(t, ok)
}

func TestEmptyPayloadRejected(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	r.Upsert("poses", model.Canonical{}, now())

	require.Equal(t, 1, r.Len())
	entries := env.errors.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, diagnostics.CodeBadMessage, entries[0].Code)

	// the rejection is channel-scoped: the entry keeps accepting afterwards
	r.Upsert("poses", poseArray(2), now())
	stats := r.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Poses)
}

func TestConcurrentStatsDuringUpserts(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Concurrent sampling, the way the monitor reads the registry
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				r.Stats()
				r.Len()
				r.Channels()
				r.TrajectoryFor("ch0")
			}
		}
	}()

	for i := 0; i < 500; i++ {
		channel := "ch" + string(rune('0'+i%4))
		r.Upsert(channel, poseArray(i%7), now())
		if i%50 == 0 {
			r.Upsert(channel, gridMsg(2, 2, make([]byte, 4)), now())
		}
	}
	r.RemoveChannel("ch3")

	close(stop)
	wg.Wait()

	assert.Equal(t, 3, r.Len())
}
