package physics

// restitutionGravityFloor is the minimum gravity magnitude used by the
// resting-contact velocity cutoff, so restitution doesn't stay permanently
// enabled in a zero-gravity world (SPEC_FULL §D; spec §4.6 names only
// "2*dt*|g|").
const restitutionGravityFloor = 1e-2

// ContactConstraint is the behavior bound to every collider-pair overlap
// the broadphase reports (spec §4.6): cached narrowphase result, combined
// material properties, and the cached normal-force magnitude friction
// uses as its Coulomb limit.
type ContactConstraint struct {
	ColliderA, ColliderB Ref[Collider]

	colliding bool

	staticFriction  Scalar
	dynamicFriction Scalar
	restitution     Scalar

	contact     ContactPoint
	normalForce Scalar
}

// BindContact (re)initializes a pooled ContactConstraint for a newly
// discovered (or reused) collider pair, per spec §4.9 step 3.
func (cc *ContactConstraint) BindContact(colliderA, colliderB Ref[Collider], a, b *Collider) {
	cc.ColliderA = colliderA
	cc.ColliderB = colliderB
	cc.colliding = false
	cc.normalForce = 0
	cc.staticFriction = (a.StaticFriction + b.StaticFriction) / 2
	cc.dynamicFriction = (a.DynamicFriction + b.DynamicFriction) / 2
	cc.restitution = (a.Restitution + b.Restitution) / 2
}

func bodyPoseOrIdentity(b *Body) Pose {
	if b == nil {
		return IdentityPose()
	}
	return b.Pose
}

func bodyPrevPoseOrIdentity(b *Body) Pose {
	if b == nil {
		return IdentityPose()
	}
	return b.PrevPose
}

func (cc *ContactConstraint) ApplyForces(c *Constraint, w *World, h Scalar) {}

// SolvePositions re-runs narrowphase between the two colliders and, while
// still colliding, applies the penetration correction and (if within the
// Coulomb limit) a static-friction correction, per spec §4.6.
func (cc *ContactConstraint) SolvePositions(c *Constraint, w *World, hInv2 Scalar) {
	colA, okA := w.Colliders.Get(cc.ColliderA)
	colB, okB := w.Colliders.Get(cc.ColliderB)
	if !okA || !okB {
		cc.colliding = false
		return
	}
	bodyA, bodyB := c.bodies(w)
	poseA := bodyPoseOrIdentity(bodyA)
	poseB := bodyPoseOrIdentity(bodyB)

	cp, hit := collide(colA, colB, poseA, poseB, w.Logger)
	if !hit {
		cc.colliding = false
		return
	}
	cc.colliding = true
	cc.contact = cp

	wpA := colA.WorldPose(poseA)
	wpB := colB.WorldPose(poseB)
	worldA := wpA.Transform(cp.LocalA)
	worldB := wpB.Transform(cp.LocalB)

	delta := cp.Normal.Mul(cp.Depth)
	n, lambda, ok := computeCorrections(bodyA, bodyB, delta, 0, hInv2, worldA, true, worldB, true)
	if !ok {
		return
	}
	applyCorrections(bodyA, bodyB, n, lambda, false, worldA, true, worldB, true)
	cc.normalForce = absf(lambda * hInv2)

	// Positions moved: recompute world contact points for the friction pass.
	poseA2 := bodyPoseOrIdentity(bodyA)
	poseB2 := bodyPoseOrIdentity(bodyB)
	worldA2 := colA.WorldPose(poseA2).Transform(cp.LocalA)
	worldB2 := colB.WorldPose(poseB2).Transform(cp.LocalB)

	prevWorldA := colA.WorldPose(bodyPrevPoseOrIdentity(bodyA)).Transform(cp.LocalA)
	prevWorldB := colB.WorldPose(bodyPrevPoseOrIdentity(bodyB)).Transform(cp.LocalB)

	dp := worldB2.Sub(prevWorldB).Sub(worldA2.Sub(prevWorldA))
	tangentDelta := projectOnPlane(dp, n)

	tn, tlambda, ok2 := computeCorrections(bodyA, bodyB, tangentDelta, 0, hInv2, worldA2, true, worldB2, true)
	if ok2 && absf(tlambda*hInv2) < cc.staticFriction*cc.normalForce {
		applyCorrections(bodyA, bodyB, tn, tlambda, false, worldA2, true, worldB2, true)
	}
}

// SolveVelocities applies restitution and dynamic friction, per spec §4.6.
func (cc *ContactConstraint) SolveVelocities(c *Constraint, w *World, h, hInv2 Scalar) {
	if !cc.colliding {
		return
	}
	colA, okA := w.Colliders.Get(cc.ColliderA)
	colB, okB := w.Colliders.Get(cc.ColliderB)
	if !okA || !okB {
		return
	}
	bodyA, bodyB := c.bodies(w)
	poseA := bodyPoseOrIdentity(bodyA)
	poseB := bodyPoseOrIdentity(bodyB)

	worldA := colA.WorldPose(poseA).Transform(cc.contact.LocalA)
	worldB := colB.WorldPose(poseB).Transform(cc.contact.LocalB)
	n := cc.contact.Normal

	vA := bodyPointVelocity(bodyA, worldA)
	vB := bodyPointVelocity(bodyB, worldB)
	v := vB.Sub(vA)
	vn := n.Dot(v)

	preVA := bodyPrevPointVelocity(bodyA, worldA)
	preVB := bodyPrevPointVelocity(bodyB, worldB)
	preVn := n.Dot(preVB.Sub(preVA))

	cutoff := 2 * h * maxf(w.Gravity.Len(), restitutionGravityFloor)
	e := Scalar(0)
	if absf(vn) >= cutoff {
		e = cc.restitution
	}

	dv := -vn + maxf(-e*preVn, 0)
	if absf(dv) > epsilon {
		delta := n.Mul(dv)
		nr, lambda, ok := computeCorrections(bodyA, bodyB, delta, 0, 0, worldA, true, worldB, true)
		if ok {
			applyCorrections(bodyA, bodyB, nr, lambda, true, worldA, true, worldB, true)
		}
	}

	// Dynamic friction, recomputed against the post-restitution velocity.
	vA = bodyPointVelocity(bodyA, worldA)
	vB = bodyPointVelocity(bodyB, worldB)
	v = vB.Sub(vA)
	vn = n.Dot(v)
	vt := v.Sub(n.Mul(vn))
	speedT := vt.Len()
	if speedT <= epsilon {
		return
	}
	maxFriction := cc.dynamicFriction * cc.normalForce * h
	mag := minf(maxFriction, speedT)
	tangent := vt.Mul(1 / speedT)
	deltaT := tangent.Mul(-mag)

	nt, lambdaT, ok := computeCorrections(bodyA, bodyB, deltaT, 0, 0, worldA, true, worldB, true)
	if ok {
		applyCorrections(bodyA, bodyB, nt, lambdaT, true, worldA, true, worldB, true)
	}
}
