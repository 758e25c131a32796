package model

import "math"

// Vector is a position or direction in world units.
// Value type, passed by value.
type Vector struct {
	X float64
	Y float64
	Z float64
}

// Vec creates a Vector.
func Vec(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * k.
func (v Vector) Scale(k float64) Vector {
	return Vector{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Length returns the euclidean length.
func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns the unit vector and the original length.
// A zero vector is returned unchanged with length 0.
func (v Vector) Normalized() (Vector, float64) {
	l := v.Length()
	if l == 0 {
		return v, 0
	}
	return v.Scale(1 / l), l
}

// DistanceSquared returns squared 3D distance (no sqrt).
func (v Vector) DistanceSquared(o Vector) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// Distance2DSquared returns squared distance ignoring height.
func (v Vector) Distance2DSquared(o Vector) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// Distance returns 3D distance.
func (v Vector) Distance(o Vector) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

// Yaw returns the heading of v in the XY plane, degrees in [0, 360).
func (v Vector) Yaw() float64 {
	deg := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
