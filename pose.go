package physics

import "github.com/go-gl/mathgl/mgl64"

// Pose is a rigid transform: a position plus an optional rotation. When
// HasRotation is false the rotation is fixed at identity and Rotate /
// InverseRotate become no-ops — this is the particle specialization from
// spec §3, kept as a flag rather than a second type so bodies can flip
// between particle and rigid behavior without reallocating.
type Pose struct {
	Position    Vec3
	Rotation    Quat
	HasRotation bool
}

// NewPose returns a rigid pose with the given position and rotation.
func NewPose(pos Vec3, rot Quat) Pose {
	return Pose{Position: pos, Rotation: rot, HasRotation: true}
}

// NewParticlePose returns a pose with rotation permanently fixed at identity.
func NewParticlePose(pos Vec3) Pose {
	return Pose{Position: pos, Rotation: mgl64.QuatIdent(), HasRotation: false}
}

// IdentityPose is the rigid identity pose (origin, no rotation).
func IdentityPose() Pose {
	return Pose{Position: zeroVec3, Rotation: mgl64.QuatIdent(), HasRotation: true}
}

// Rotate applies the pose's rotation to a direction vector.
func (p Pose) Rotate(v Vec3) Vec3 {
	if !p.HasRotation {
		return v
	}
	return p.Rotation.Rotate(v)
}

// InverseRotate applies the inverse of the pose's rotation to a direction vector.
func (p Pose) InverseRotate(v Vec3) Vec3 {
	if !p.HasRotation {
		return v
	}
	return p.Rotation.Conjugate().Rotate(v)
}

// Transform maps a point from the pose's local frame into world space.
func (p Pose) Transform(v Vec3) Vec3 {
	return p.Position.Add(p.Rotate(v))
}

// InverseTransform maps a point from world space into the pose's local frame.
func (p Pose) InverseTransform(v Vec3) Vec3 {
	return p.InverseRotate(v.Sub(p.Position))
}

// Compose returns the pose equivalent to first applying child, then this
// pose: world = p.Compose(child) transforms child-local points into world
// space via this pose's frame.
func (p Pose) Compose(child Pose) Pose {
	hasRot := p.HasRotation || child.HasRotation
	rot := child.Rotation
	if p.HasRotation {
		rot = p.Rotation.Mul(child.Rotation)
	}
	return Pose{
		Position:    p.Transform(child.Position),
		Rotation:    rot,
		HasRotation: hasRot,
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	if !p.HasRotation {
		return NewParticlePose(p.Position.Mul(-1))
	}
	inv := p.Rotation.Conjugate()
	return Pose{Position: inv.Rotate(p.Position.Mul(-1)), Rotation: inv, HasRotation: true}
}

// VelocityPose is a rigid body's instantaneous linear and angular velocity.
type VelocityPose struct {
	Linear  Vec3
	Angular Vec3
}

// PointVelocity returns the velocity of the material point at world-space
// position pos, given that the body's center of mass is at worldCOM.
func (v VelocityPose) PointVelocity(pos, worldCOM Vec3) Vec3 {
	return v.Linear.Add(v.Angular.Cross(pos.Sub(worldCOM)))
}

// Ray is a parametric ray: points on it are Origin + t*Direction for t >= 0.
// Direction is expected to be unit length; callers that build a Ray from an
// arbitrary vector should normalize first.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay normalizes dir and returns the corresponding ray.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Direction: safeNormalize(dir, Vec3{1, 0, 0})}
}

// PointAt evaluates the ray at parameter t.
func (r Ray) PointAt(t Scalar) Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
