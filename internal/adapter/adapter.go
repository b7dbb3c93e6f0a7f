// Package adapter normalizes each accepted message shape into the canonical
// pose-array or grid representation consumed by the lifecycle registry.
// Adapters are pure conversions with only a logger and a diagnostics
// reporter as dependencies.
package adapter

import (
	"fmt"
	"log/slog"

	"github.com/fieldview/fieldview/internal/diagnostics"
	"github.com/fieldview/fieldview/internal/grid"
	"github.com/fieldview/fieldview/internal/model"
	"github.com/fieldview/fieldview/pkg/schema"
)

// Adapter converts wire messages to canonical payloads.
type Adapter struct {
	logger *slog.Logger
	diag   diagnostics.Reporter
}

// New creates an adapter.
func New(logger *slog.Logger, diag diagnostics.Reporter) *Adapter {
	return &Adapter{logger: logger, diag: diag}
}

// Normalize runs the adapter matching the event's schema kind. Conversion is
// resolved once per message from the kind tag, never by inspecting content.
func (a *Adapter) Normalize(ev schema.MessageEvent) (model.Canonical, error) {
	switch ev.Kind {
	case schema.KindPoseArray:
		msg, ok := ev.Message.(*schema.PoseArrayMessage)
		if !ok {
			return model.Canonical{}, badPayload(ev)
		}
		return a.poseArray(msg), nil
	case schema.KindPath:
		msg, ok := ev.Message.(*schema.PathMessage)
		if !ok {
			return model.Canonical{}, badPayload(ev)
		}
		return a.path(ev.Channel, msg), nil
	case schema.KindPosesInFrame:
		msg, ok := ev.Message.(*schema.PosesInFrameMessage)
		if !ok {
			return model.Canonical{}, badPayload(ev)
		}
		return a.posesInFrame(msg), nil
	case schema.KindRobotStatePath:
		msg, ok := ev.Message.(*schema.RobotStatePathMessage)
		if !ok {
			return model.Canonical{}, badPayload(ev)
		}
		return a.robotStatePath(msg), nil
	case schema.KindVendorCostmap:
		msg, ok := ev.Message.(*schema.VendorCostmapMessage)
		if !ok {
			return model.Canonical{}, badPayload(ev)
		}
		return a.vendorCostmap(msg), nil
	case schema.KindGrid:
		msg, ok := ev.Message.(*schema.GridMessage)
		if !ok {
			return model.Canonical{}, badPayload(ev)
		}
		return a.grid(msg), nil
	}
	return model.Canonical{}, fmt.Errorf("channel %s: no adapter for schema kind %s", ev.Channel, ev.Kind)
}

func badPayload(ev schema.MessageEvent) error {
	return fmt.Errorf("channel %s: payload %T does not match schema kind %s",
		ev.Channel, ev.Message, ev.Kind)
}

func (a *Adapter) poseArray(msg *schema.PoseArrayMessage) model.Canonical {
	return model.Canonical{PoseArray: &model.PoseArray{
		Header: toHeader(msg.Header),
		Poses:  toPoses(msg.Poses),
	}}
}

// path flattens a path into a pose array. Constituent poses referencing a
// different frame than the path header are reported as a diagnostic but
// still rendered.
func (a *Adapter) path(channel string, msg *schema.PathMessage) model.Canonical {
	poses := make([]model.Pose, len(msg.Poses))
	mismatched := 0
	for i, ps := range msg.Poses {
		if ps.Header.FrameID != "" && ps.Header.FrameID != msg.Header.FrameID {
			mismatched++
		}
		poses[i] = toPose(ps.Pose)
	}
	if mismatched > 0 {
		a.diag.ReportError(channel, diagnostics.CodeFrameMismatch,
			fmt.Sprintf("%d of %d path poses reference a frame other than %q",
				mismatched, len(msg.Poses), msg.Header.FrameID))
	}
	return model.Canonical{PoseArray: &model.PoseArray{
		Header: toHeader(msg.Header),
		Poses:  poses,
	}}
}

func (a *Adapter) posesInFrame(msg *schema.PosesInFrameMessage) model.Canonical {
	return model.Canonical{PoseArray: &model.PoseArray{
		Header: model.Header{Stamp: msg.Timestamp.Nanos(), FrameID: msg.FrameID},
		Poses:  toPoses(msg.Poses),
	}}
}

func (a *Adapter) robotStatePath(msg *schema.RobotStatePathMessage) model.Canonical {
	return model.Canonical{
		PoseArray: &model.PoseArray{
			Header: toHeader(msg.Header),
			Poses:  toPoses(msg.Poses),
		},
		TrolleyAngles: msg.TrolleyAngles,
		HitchAngles:   msg.HitchAngles,
	}
}

// vendorCostmap expands the packed 2-bit cells into one byte per cell.
// Width, height, resolution and origin carry over from the source message;
// a missing origin defaults to the identity pose.
func (a *Adapter) vendorCostmap(msg *schema.VendorCostmapMessage) model.Canonical {
	origin := model.IdentityPose()
	if msg.Origin != nil {
		origin = toPose(*msg.Origin)
	}
	cells := int(msg.Width) * int(msg.Height)
	return model.Canonical{Grid: &model.RawGrid{
		Header: toHeader(msg.Header),
		Info: model.GridInfo{
			Resolution: msg.Resolution,
			Width:      msg.Width,
			Height:     msg.Height,
			Origin:     origin,
		},
		Data: grid.UnpackCostmap(msg.Data, cells),
	}}
}

// grid passes the payload through untouched: embedded-image dispatch and the
// dimension check belong to the decode stage.
func (a *Adapter) grid(msg *schema.GridMessage) model.Canonical {
	return model.Canonical{Grid: &model.RawGrid{
		Header: toHeader(msg.Header),
		Info: model.GridInfo{
			Resolution: msg.Info.Resolution,
			Width:      msg.Info.Width,
			Height:     msg.Info.Height,
			Origin:     toPose(msg.Info.Origin),
		},
		Data: msg.Data,
	}}
}

func toHeader(h schema.Header) model.Header {
	return model.Header{Stamp: h.Stamp.Nanos(), FrameID: h.FrameID}
}

func toPose(p schema.Pose) model.Pose {
	return model.Pose{
		Position: model.Vector3{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Orientation: model.Quaternion{
			X: p.Orientation.X,
			Y: p.Orientation.Y,
			Z: p.Orientation.Z,
			W: p.Orientation.W,
		},
	}
}

func toPoses(in []schema.Pose) []model.Pose {
	out := make([]model.Pose, len(in))
	for i, p := range in {
		out[i] = toPose(p)
	}
	return out
}
