package bhvtree

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is the blackboard's spatial value type, backed by mgl32.Vec3,
// so positions on the blackboard carry real vector arithmetic instead
// of three bare floats.
type Vec3 struct {
	v mgl32.Vec3
}

// NewVec3 builds a Vec3 from components.
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{v: mgl32.Vec3{x, y, z}}
}

// X, Y, Z return the individual components.
func (a Vec3) X() float32 { return a.v[0] }
func (a Vec3) Y() float32 { return a.v[1] }
func (a Vec3) Z() float32 { return a.v[2] }

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 { return Vec3{v: a.v.Add(b.v)} }

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{v: a.v.Sub(b.v)} }

// Scale returns a scaled by s.
func (a Vec3) Scale(s float32) Vec3 { return Vec3{v: a.v.Mul(s)} }

// Len returns the Euclidean length of a.
func (a Vec3) Len() float32 { return a.v.Len() }

// Distance returns the Euclidean distance between a and b.
func (a Vec3) Distance(b Vec3) float32 { return a.Sub(b).Len() }

// Normalize returns a unit vector in the direction of a, or the zero
// vector if a has zero length.
func (a Vec3) Normalize() Vec3 {
	if a.v.Len() == 0 {
		return Vec3{}
	}
	return Vec3{v: a.v.Normalize()}
}

func (a Vec3) String() string {
	return fmt.Sprintf("%g,%g,%g", a.v[0], a.v[1], a.v[2])
}
