package physics

// ConstraintBehavior is the per-kind logic a Constraint dispatches to.
// Spec §4.6 describes a Constraint as "two optional body refs, three
// function pointers, and an opaque payload" — Go replaces the C-style
// function-pointer trio with an interface whose methods receive the
// owning Constraint, so each behavior (contact, joint, motor) can still
// read BodyA/BodyB/IgnoreCollisions without its own copy of them.
type ConstraintBehavior interface {
	ApplyForces(c *Constraint, w *World, h Scalar)
	SolvePositions(c *Constraint, w *World, hInv2 Scalar)
	SolveVelocities(c *Constraint, w *World, h, hInv2 Scalar)
}

// Constraint couples up to two bodies through a ConstraintBehavior.
type Constraint struct {
	BodyA, BodyB     Ref[Body]
	IgnoreCollisions bool
	Behavior         ConstraintBehavior
}

func (c *Constraint) bodies(w *World) (a, b *Body) {
	if !c.BodyA.IsZero() {
		a, _ = w.Bodies.Get(c.BodyA)
	}
	if !c.BodyB.IsZero() {
		b, _ = w.Bodies.Get(c.BodyB)
	}
	return a, b
}

func bodyPointVelocity(b *Body, worldPos Vec3) Vec3 {
	if b == nil {
		return zeroVec3
	}
	if b.IsParticle() {
		return b.Vel.Linear
	}
	return b.Vel.PointVelocity(worldPos, b.WorldCOM())
}

func bodyPrevPointVelocity(b *Body, worldPos Vec3) Vec3 {
	if b == nil {
		return zeroVec3
	}
	if b.IsParticle() {
		return b.PrevVel.Linear
	}
	return b.PrevVel.PointVelocity(worldPos, b.PrevPose.Transform(b.MassPose.Position))
}

// computeCorrections is the shared XPBD correction-magnitude helper from
// spec §4.6: w = wA + wB via GetInverseMass; lambda = -|delta| / (w +
// compliance/dt^2); reports ok=false when neither body has any inverse
// mass along the correction direction.
func computeCorrections(bodyA, bodyB *Body, delta Vec3, compliance, hInv2 Scalar,
	posA Vec3, hasPosA bool, posB Vec3, hasPosB bool) (axis Vec3, lambda Scalar, ok bool) {
	mag := delta.Len()
	if mag < epsilon {
		return zeroVec3, 0, false
	}
	n := delta.Mul(1 / mag)

	var wA, wB Scalar
	if bodyA != nil {
		wA = bodyA.GetInverseMass(n, posA, hasPosA)
	}
	if bodyB != nil {
		wB = bodyB.GetInverseMass(n, posB, hasPosB)
	}
	w := wA + wB
	if w < epsilon {
		return n, 0, false
	}
	lambda = -mag / (w + compliance*hInv2)
	return n, lambda, true
}

// applyCorrections applies -lambda*n to bodyA and +lambda*n to bodyB at
// their respective points, at position or velocity level (spec §4.6).
func applyCorrections(bodyA, bodyB *Body, n Vec3, lambda Scalar, velLevel bool,
	posA Vec3, hasPosA bool, posB Vec3, hasPosB bool) {
	if bodyA != nil {
		bodyA.ApplyCorrection(n.Mul(-lambda), posA, hasPosA, velLevel)
	}
	if bodyB != nil {
		bodyB.ApplyCorrection(n.Mul(lambda), posB, hasPosB, velLevel)
	}
}

// dampRelativeVelocity drives the relative velocity between two points (or,
// with hasPosA/hasPosB both false, two angular velocities) toward zero by
// the given factor (already min(damping*dt, 1)-clamped by the caller),
// used by joints' solveVelocities (spec §4.7).
func dampRelativeVelocity(bodyA, bodyB *Body, posA Vec3, hasPosA bool, posB Vec3, hasPosB bool, factor Scalar) {
	if factor <= 0 {
		return
	}
	var vA, vB Vec3
	if hasPosA || hasPosB {
		vA = bodyPointVelocity(bodyA, posA)
		vB = bodyPointVelocity(bodyB, posB)
	} else {
		if bodyA != nil {
			vA = bodyA.Vel.Angular
		}
		if bodyB != nil {
			vB = bodyB.Vel.Angular
		}
	}
	relVel := vB.Sub(vA)
	delta := relVel.Mul(factor)
	n, lambda, ok := computeCorrections(bodyA, bodyB, delta, 0, 0, posA, hasPosA, posB, hasPosB)
	if !ok {
		return
	}
	applyCorrections(bodyA, bodyB, n, lambda, true, posA, hasPosA, posB, hasPosB)
}
