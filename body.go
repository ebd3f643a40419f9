package physics

import "github.com/go-gl/mathgl/mgl64"

// maxPhi bounds the per-substep rotation angle applyRotation will commit,
// per spec §4.5, to keep the orientation update stable under large
// angular velocities or stiff corrections.
const maxPhi = 0.5

// Body is a rigid body (or, when its Pose carries no rotation, the
// particle specialization from spec §4.5): a current and previous pose,
// a current and previous velocity, the principal-axis mass frame, and
// the external force accumulators, cleared right after each Integrate.
type Body struct {
	Pose     Pose
	PrevPose Pose

	Vel     VelocityPose
	PrevVel VelocityPose

	// MassPose is the principal-axis frame relative to Pose: its Position
	// is the body-local center of mass, its Rotation aligns the inertia
	// tensor's principal axes with the coordinate axes.
	MassPose Pose

	InvMass    Scalar
	InvInertia Vec3 // diagonal, in the mass frame

	Colliders []Ref[Collider]

	ForceLinear  Vec3
	ForceAngular Vec3

	Gravity Scalar // per-body gravity scale, 1 by default (spec is silent; SPEC_FULL §D)
}

// NewBody returns a rigid body at the given pose with infinite mass (no
// colliders yet contribute any mass); call UpdateMass once colliders are
// attached.
func NewBody(pose Pose) *Body {
	return &Body{
		Pose:     pose,
		PrevPose: pose,
		MassPose: NewPose(zeroVec3, mgl64.QuatIdent()),
		Gravity:  1,
	}
}

// NewParticleBody returns a particle (no rotation) at the given position.
func NewParticleBody(pos Vec3) *Body {
	return NewBody(NewParticlePose(pos))
}

// IsParticle reports whether this body has rotation disabled.
func (b *Body) IsParticle() bool {
	return !b.Pose.HasRotation
}

// IsStatic reports whether the body has no mass (infinite-mass / fixed).
func (b *Body) IsStatic() bool {
	return b.InvMass == 0 && b.InvInertia == zeroVec3
}

// AddForce accumulates a world-space linear force.
func (b *Body) AddForce(f Vec3) {
	b.ForceLinear = b.ForceLinear.Add(f)
}

// AddTorque accumulates a world-space angular force (torque).
func (b *Body) AddTorque(t Vec3) {
	b.ForceAngular = b.ForceAngular.Add(t)
}

// ClearForces resets the external force accumulators; called once per
// substep after applyForces has been dispatched to every constraint
// (SPEC_FULL §C.5 — the original distillation left this implicit).
func (b *Body) ClearForces() {
	b.ForceLinear = zeroVec3
	b.ForceAngular = zeroVec3
}

// WorldCOM returns the world-space position of the body's center of mass.
func (b *Body) WorldCOM() Vec3 {
	return b.Pose.Transform(b.MassPose.Position)
}

// massFrame is the composite pose (Pose * MassPose) whose rotation is the
// principal-axis frame in world space.
func (b *Body) massFrame() Pose {
	return b.Pose.Compose(b.MassPose)
}

// Integrate advances the body's pose and velocity by h under gravity g
// and the currently accumulated forces, per spec §4.5.
func (b *Body) Integrate(h Scalar, gravity Vec3) {
	b.PrevPose = b.Pose
	b.PrevVel = b.Vel

	accel := gravity.Mul(b.Gravity).Add(b.ForceLinear.Mul(b.InvMass))
	if b.IsStatic() {
		accel = zeroVec3
	}
	b.Vel.Linear = b.Vel.Linear.Add(accel.Mul(h))
	b.Pose.Position = b.Pose.Position.Add(b.Vel.Linear.Mul(h))

	if b.IsParticle() {
		return
	}

	// Angular impulse: rotate the accumulated world-space torque into the
	// mass frame, scale by the diagonal inverse inertia, rotate back out.
	angImpulse := b.ForceAngular.Mul(h)
	bodyLocal := b.Pose.InverseRotate(angImpulse)
	massLocal := b.MassPose.InverseRotate(bodyLocal)
	scaled := Vec3{massLocal.X() * b.InvInertia.X(), massLocal.Y() * b.InvInertia.Y(), massLocal.Z() * b.InvInertia.Z()}
	dOmega := b.Pose.Rotate(b.MassPose.Rotate(scaled))

	b.Vel.Angular = b.Vel.Angular.Add(dOmega)
	b.ApplyRotation(b.Vel.Angular, h)
}

// Differentiate recomputes velocity from the pose delta since the last
// Integrate, per spec §4.5. Used after solvePositions has moved bodies,
// so velocity reflects the corrected motion rather than the raw integrated one.
func (b *Body) Differentiate(hInv Scalar) {
	if b.IsParticle() {
		b.Vel.Linear = b.Pose.Position.Sub(b.PrevPose.Position).Mul(hInv)
		return
	}

	comNow := b.Pose.Transform(b.MassPose.Position)
	comPrev := b.PrevPose.Transform(b.MassPose.Position)
	b.Vel.Linear = comNow.Sub(comPrev).Mul(hInv)

	dq := b.Pose.Rotation.Mul(b.PrevPose.Rotation.Conjugate())
	sign := Scalar(1)
	if dq.W < 0 {
		sign = -1
	}
	b.Vel.Angular = dq.V.Mul(2 * hInv * sign)
}

// ApplyRotation applies a rotation increment Δω·scale to the body's
// orientation, clamped to maxPhi radians, then translates the pose so the
// world-space center of mass is unchanged by the rotation (the pivot is
// the COM, not the pose origin), per spec §4.5.
func (b *Body) ApplyRotation(deltaOmega Vec3, scale Scalar) {
	if !b.Pose.HasRotation {
		return
	}
	phi := deltaOmega.Mul(scale)
	angle := phi.Len()
	if angle < epsilon {
		return
	}
	if angle > maxPhi {
		phi = phi.Mul(maxPhi / angle)
		angle = maxPhi
	}
	axis := phi.Mul(1 / angle)

	comBefore := b.WorldCOM()
	dq := quatFromAngleAxis(angle, axis)
	b.Pose.Rotation = dq.Mul(b.Pose.Rotation).Normalize()
	comAfter := b.Pose.Transform(b.MassPose.Position)
	b.Pose.Position = b.Pose.Position.Add(comBefore.Sub(comAfter))
}

// GetInverseMass returns the effective scalar inverse mass along world
// direction n at world point pos, or (if hasPos is false) the pure
// rotational inverse mass about axis n, per spec §4.5.
func (b *Body) GetInverseMass(n Vec3, pos Vec3, hasPos bool) Scalar {
	if b.IsParticle() {
		if !hasPos {
			return 0
		}
		return b.InvMass
	}

	var axis Vec3
	if hasPos {
		arm := pos.Sub(b.WorldCOM())
		axis = arm.Cross(n)
	} else {
		axis = n
	}
	local := b.massFrame().InverseRotate(axis)
	angular := local.X()*local.X()*b.InvInertia.X() +
		local.Y()*local.Y()*b.InvInertia.Y() +
		local.Z()*local.Z()*b.InvInertia.Z()

	if hasPos {
		return b.InvMass + angular
	}
	return angular
}

// ApplyCorrection is the inverse of GetInverseMass: it applies a
// correction vector delta at world point pos (or, if hasPos is false, a
// pure angular correction about axis delta), either to the pose
// (velLevel == false) or directly to the velocity (velLevel == true),
// per spec §4.5.
func (b *Body) ApplyCorrection(delta Vec3, pos Vec3, hasPos bool, velLevel bool) {
	if b.IsParticle() {
		if !hasPos {
			return
		}
		lin := delta.Mul(b.InvMass)
		if velLevel {
			b.Vel.Linear = b.Vel.Linear.Add(lin)
		} else {
			b.Pose.Position = b.Pose.Position.Add(lin)
		}
		return
	}

	linDelta := delta.Mul(b.InvMass)

	var angularAxis Vec3
	if hasPos {
		arm := pos.Sub(b.WorldCOM())
		angularAxis = arm.Cross(delta)
	} else {
		angularAxis = delta
	}
	local := b.massFrame().InverseRotate(angularAxis)
	scaled := Vec3{local.X() * b.InvInertia.X(), local.Y() * b.InvInertia.Y(), local.Z() * b.InvInertia.Z()}
	angularWorld := b.massFrame().Rotate(scaled)

	if velLevel {
		if hasPos {
			b.Vel.Linear = b.Vel.Linear.Add(linDelta)
		}
		b.Vel.Angular = b.Vel.Angular.Add(angularWorld)
		return
	}

	if hasPos {
		b.Pose.Position = b.Pose.Position.Add(linDelta)
	}
	b.ApplyRotation(angularWorld, 1)
}

// UpdateMass recomputes MassPose, InvMass and InvInertia from the body's
// attached colliders, per spec §4.5: accumulate via a massComputer,
// diagonalize the composite inertia tensor, and fall back to infinite
// mass if diagonalization fails. logger is forwarded to diagonalize for
// its failure-path report.
func (b *Body) UpdateMass(colliders *Store[Collider], logger Logger) {
	mc := massComputer{}
	for _, ref := range b.Colliders {
		c, ok := colliders.Get(ref)
		if !ok {
			continue
		}
		mc.add(c)
	}

	if mc.acc.Mass <= 0 {
		b.InvMass = 0
		b.InvInertia = zeroVec3
		b.MassPose = NewPose(zeroVec3, mgl64.QuatIdent())
		return
	}

	rot, diag, ok := diagonalize(mc.acc.Inertia, logger)
	if !ok {
		b.InvMass = 0
		b.InvInertia = zeroVec3
		b.MassPose = NewPose(mc.acc.COM, mgl64.QuatIdent())
		return
	}

	b.MassPose = NewPose(mc.acc.COM, quatFromMat3(rot))
	b.InvMass = 1 / mc.acc.Mass
	b.InvInertia = Vec3{1 / diag.X(), 1 / diag.Y(), 1 / diag.Z()}
}
