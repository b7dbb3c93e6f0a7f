package pipeline

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldview/fieldview/internal/adapter"
	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/dispatcher"
	"github.com/fieldview/fieldview/internal/grid"
	"github.com/fieldview/fieldview/internal/registry"
	"github.com/fieldview/fieldview/internal/scene"
	"github.com/fieldview/fieldview/internal/settings"
	"github.com/fieldview/fieldview/pkg/schema"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type staticSettings struct{}

func (staticSettings) GlobalDefaults() settings.Partial { return settings.Partial{} }
func (staticSettings) Override(string) settings.Partial { return settings.Partial{} }

func newTestService(t *testing.T) (*Service, *registry.Registry, *diagnostics.Recorder) {
	t.Helper()
	rec := diagnostics.NewRecorder()
	reg, err := registry.New(registry.Dependencies{
		Graph:       scene.NewMemoryGraph(),
		Settings:    staticSettings{},
		Diagnostics: rec,
		Logger:      slog.Default(),
		Decoder:     grid.NewDecoder(slog.Default()),
		Renderer:    grid.NewRenderer(),
	})
	require.NoError(t, err)

	svc := NewService(Dependencies{
		Adapter:     adapter.New(slog.Default(), rec),
		Registry:    reg,
		Diagnostics: rec,
		Logger:      slog.Default(),
	})
	return svc, reg, rec
}

func poseEvent(channel string, n int) schema.MessageEvent {
	poses := make([]schema.Pose, n)
	for i := range poses {
		poses[i] = schema.Pose{
			Position:    schema.Vector3{X: float64(i)},
			Orientation: schema.Quaternion{W: 1},
		}
	}
	return schema.MessageEvent{
		Channel:     channel,
		Kind:        schema.KindPoseArray,
		ReceiveTime: time.Unix(10, 0),
		Message:     &schema.PoseArrayMessage{Header: schema.Header{FrameID: "map"}, Poses: poses},
	}
}

func TestHandleRegistersChannel(t *testing.T) {
	svc, reg, _ := newTestService(t)

	require.NoError(t, svc.Handle(poseEvent("poses", 3)))

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{"poses"}, reg.Channels())
}

func TestHandleReportsBadPayload(t *testing.T) {
	svc, reg, rec := newTestService(t)

	ev := schema.MessageEvent{
		Channel: "poses",
		Kind:    schema.KindPoseArray,
		Message: &schema.GridMessage{},
	}
	require.Error(t, svc.Handle(ev))

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, rec.CountFor("poses"))
	assert.Equal(t, diagnostics.CodeBadMessage, rec.Entries()[0].Code)
}

func TestHandleFailureIsolatedPerChannel(t *testing.T) {
	svc, reg, rec := newTestService(t)

	require.NoError(t, svc.Handle(poseEvent("good", 2)))
	require.Error(t, svc.Handle(schema.MessageEvent{
		Channel: "bad",
		Kind:    schema.KindGrid,
		Message: nil,
	}))
	require.NoError(t, svc.Handle(poseEvent("good", 3)))

	assert.Equal(t, []string{"good"}, reg.Channels())
	assert.Equal(t, 0, rec.CountFor("good"))
	assert.Equal(t, 1, rec.CountFor("bad"))
}

func TestRegisterAllCoversEveryKind(t *testing.T) {
	svc, _, _ := newTestService(t)

	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)
	svc.RegisterAll(d)

	kinds := []schema.Kind{
		schema.KindPoseArray,
		schema.KindPath,
		schema.KindPosesInFrame,
		schema.KindRobotStatePath,
		schema.KindVendorCostmap,
		schema.KindGrid,
	}
	for _, k := range kinds {
		assert.True(t, d.HasHandler(k), k.String())
	}

	// dispatching through the dispatcher reaches the registry
	require.NoError(t, d.Dispatch(poseEvent("poses", 2)))
}
