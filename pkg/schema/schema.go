// Package schema defines the wire-level shapes of inbound sensor messages.
// These mirror the external message schemas; the internal packages never
// consume them directly, only their canonical forms produced by the adapters.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies which normalization adapter runs for a message.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPoseArray
	KindPath
	KindPosesInFrame
	KindRobotStatePath
	KindVendorCostmap
	KindGrid
)

var kindNames = map[Kind]string{
	KindPoseArray:      "pose_array",
	KindPath:           "path",
	KindPosesInFrame:   "poses_in_frame",
	KindRobotStatePath: "robot_state_path",
	KindVendorCostmap:  "vendor_costmap",
	KindGrid:           "grid",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a schema name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown schema kind %q", s)
}

// MessageEvent is one inbound message on a named channel.
type MessageEvent struct {
	Channel     string
	Kind        Kind
	ReceiveTime time.Time
	Message     any
}

// Time is the source timestamp split into seconds and nanoseconds.
type Time struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

// Nanos returns the timestamp as unix nanoseconds.
func (t Time) Nanos() int64 {
	return int64(t.Sec)*int64(time.Second) + int64(t.Nsec)
}

// Header is the common wire header: source time plus reference frame.
type Header struct {
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is a wire position.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a wire orientation.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is a wire pose.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseStamped is a pose carrying its own header, as found in path messages.
type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

// PoseArrayMessage is an ordered sequence of poses in one frame.
type PoseArrayMessage struct {
	Header Header `json:"header"`
	Poses  []Pose `json:"poses"`
}

// PathMessage is a trajectory whose constituent poses each carry their own
// header. Constituent frames are expected to match the path header's frame.
type PathMessage struct {
	Header Header        `json:"header"`
	Poses  []PoseStamped `json:"poses"`
}

// PosesInFrameMessage is a flat timestamped frame of poses.
type PosesInFrameMessage struct {
	Timestamp Time   `json:"timestamp"`
	FrameID   string `json:"frame_id"`
	Poses     []Pose `json:"poses"`
}

// RobotStatePathMessage is the vendor trajectory form: poses plus per-index
// trolley and hitch angle arrays used to orient auxiliary attachments.
type RobotStatePathMessage struct {
	Header        Header    `json:"header"`
	Poses         []Pose    `json:"poses"`
	TrolleyAngles []float64 `json:"trolley_angles"`
	HitchAngles   []float64 `json:"hitch_angles"`
}

// VendorCostmapMessage is the vendor grid form: cells are packed two bits
// apiece into the data bytes. Origin may be absent, meaning a zero origin.
type VendorCostmapMessage struct {
	Header     Header  `json:"header"`
	Width      uint32  `json:"width"`
	Height     uint32  `json:"height"`
	Resolution float64 `json:"resolution"`
	Origin     *Pose   `json:"origin,omitempty"`
	Data       []byte  `json:"data"`
}

// GridInfo is the wire geometry of a grid message.
type GridInfo struct {
	Resolution float64 `json:"resolution"`
	Width      uint32  `json:"width"`
	Height     uint32  `json:"height"`
	Origin     Pose    `json:"origin"`
}

// GridMessage is an occupancy grid whose data may either be raw cell bytes
// or an embedded PNG-compressed image of them.
type GridMessage struct {
	Header Header   `json:"header"`
	Info   GridInfo `json:"info"`
	Data   []byte   `json:"data"`
}

// DecodeMessage unmarshals a JSON message body into the concrete message
// struct for the given kind. Used by the replay tooling; live transports
// hand the registry already-typed messages.
func DecodeMessage(kind Kind, body []byte) (any, error) {
	var (
		msg any
		err error
	)
	switch kind {
	case KindPoseArray:
		m := &PoseArrayMessage{}
		err = json.Unmarshal(body, m)
		msg = m
	case KindPath:
		m := &PathMessage{}
		err = json.Unmarshal(body, m)
		msg = m
	case KindPosesInFrame:
		m := &PosesInFrameMessage{}
		err = json.Unmarshal(body, m)
		msg = m
	case KindRobotStatePath:
		m := &RobotStatePathMessage{}
		err = json.Unmarshal(body, m)
		msg = m
	case KindVendorCostmap:
		m := &VendorCostmapMessage{}
		err = json.Unmarshal(body, m)
		msg = m
	case KindGrid:
		m := &GridMessage{}
		err = json.Unmarshal(body, m)
		msg = m
	default:
		return nil, fmt.Errorf("no message type for %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshalling %s message: %w", kind, err)
	}
	return msg, nil
}
