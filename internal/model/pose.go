package model

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Vector3 is a position or scale in meters.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation in xyzw order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuaternion returns the no-rotation orientation.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// QuaternionFromYaw builds an orientation rotating yaw radians about +Z.
func QuaternionFromYaw(yaw float64) Quaternion {
	half := yaw / 2
	return Quaternion{Z: math.Sin(half), W: math.Cos(half)}
}

// Mul composes two rotations: q then o, in the usual quaternion product order.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	r := quat.Mul(q.num(), o.num())
	return Quaternion{X: r.Imag, Y: r.Jmag, Z: r.Kmag, W: r.Real}
}

// Rotate applies the rotation to a vector.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.num(), p), quat.Conj(q.num()))
	return Vector3{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

func (q Quaternion) num() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Pose is a rigid transform: position plus orientation.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// IdentityPose returns the origin pose with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: IdentityQuaternion()}
}

// Apply transforms a point from the pose's local frame into its parent frame.
func (p Pose) Apply(v Vector3) Vector3 {
	r := p.Orientation.Rotate(v)
	return Vector3{
		X: r.X + p.Position.X,
		Y: r.Y + p.Position.Y,
		Z: r.Z + p.Position.Z,
	}
}

// Header carries the source-reported timestamp (unix nanoseconds) and the
// spatial reference frame the payload is expressed in.
type Header struct {
	Stamp   int64  `json:"stamp"`
	FrameID string `json:"frameId"`
}

// PoseArray is the canonical trajectory form. Sequence order is render
// order: the index doubles as the gradient interpolation parameter and as
// the trolley angle-array index when applicable.
type PoseArray struct {
	Header Header `json:"header"`
	Poses  []Pose `json:"poses"`
}

// Len returns the pose count.
func (pa *PoseArray) Len() int {
	if pa == nil {
		return 0
	}
	return len(pa.Poses)
}
