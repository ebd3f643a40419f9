package physics

import "math"

// JointDOF is the degree-of-freedom / limit bitmask from spec §4.7: each
// bit names a freedom the joint either allows (DOFMask) or bounds
// (LimitMask).
type JointDOF uint8

const (
	DOFLinear JointDOF = 1
	DOFPlanar JointDOF = 2
	DOFTwist  JointDOF = 4
	DOFSwing  JointDOF = 8
)

// JointConstraint is the generic two-body joint from spec §4.7: anchor
// poses on each body, compliance/damping, and a DOF + limit mask that
// selects one of six position-solve regimes.
type JointConstraint struct {
	LocalAnchorA, LocalAnchorB Pose

	PositionCompliance Scalar
	RotationCompliance Scalar
	PositionDamping    Scalar
	RotationDamping    Scalar

	DOFMask   JointDOF
	LimitMask JointDOF

	LinearLimit        Scalar // symmetric +/- extent along (or radially around) the axis
	MinTwist, MaxTwist Scalar
	MinSwing, MaxSwing Scalar
}

// NewJointConstraint returns a joint with both anchors at identity and no
// freedoms (a fixed joint) until DOFMask is set by the caller.
func NewJointConstraint() *JointConstraint {
	return &JointConstraint{
		LocalAnchorA: IdentityPose(),
		LocalAnchorB: IdentityPose(),
	}
}

func (j *JointConstraint) worldAnchor(b *Body, local Pose) Pose {
	return bodyPoseOrIdentity(b).Compose(local)
}

func (j *JointConstraint) ApplyForces(c *Constraint, w *World, h Scalar) {}

// SolvePositions dispatches to the rotational regime (fixed orientation /
// full spherical / hinge) and the translational regime (fixed position /
// prismatic-planar / sliding) independently, per spec §4.7.
func (j *JointConstraint) SolvePositions(c *Constraint, w *World, hInv2 Scalar) {
	bodyA, bodyB := c.bodies(w)

	hasSwing := j.DOFMask&DOFSwing != 0
	hasTwist := j.DOFMask&DOFTwist != 0
	hasLinear := j.DOFMask&DOFLinear != 0
	hasPlanar := j.DOFMask&DOFPlanar != 0

	switch {
	case hasSwing:
		j.solveFullSpherical(bodyA, bodyB, hInv2)
	case hasTwist:
		j.solveHinge(bodyA, bodyB, hInv2)
	default:
		j.solveFixedOrientation(bodyA, bodyB, hInv2)
	}

	switch {
	case hasPlanar:
		j.solvePrismaticPlanar(bodyA, bodyB, hInv2)
	case hasLinear:
		j.solveSliding(bodyA, bodyB, hInv2)
	default:
		j.solveFixedPosition(bodyA, bodyB, hInv2)
	}
}

func (j *JointConstraint) solveFixedOrientation(bodyA, bodyB *Body, hInv2 Scalar) {
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)

	q := poseB.Rotation.Mul(poseA.Rotation.Conjugate())
	if q.W < 0 {
		q = Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	// Small-angle axis-angle extraction: for a near-identity quaternion
	// sin(theta/2)*axis ~= (theta/2)*axis, so 2*V approximates theta*axis.
	corr := q.V.Mul(2)

	if n, lambda, ok := computeCorrections(bodyA, bodyB, corr, j.RotationCompliance, hInv2, zeroVec3, false, zeroVec3, false); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, zeroVec3, false, zeroVec3, false)
	}
}

func (j *JointConstraint) solveFullSpherical(bodyA, bodyB *Body, hInv2 Scalar) {
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)
	axisA := poseA.Rotate(Vec3{1, 0, 0})
	axisB := poseB.Rotate(Vec3{1, 0, 0})

	maxCorr := Scalar(maxPhi)
	if axisA.Dot(axisB) < -0.5 {
		maxCorr = 1e-3
	}

	if j.LimitMask&DOFSwing != 0 {
		n := safeNormalize(axisA.Cross(axisB), anyOrthogonal(axisA))
		if corr, ok := angleLimitCorrection(n, axisA, axisB, j.MinSwing, j.MaxSwing, maxCorr); ok {
			if nr, lambda, okc := computeCorrections(bodyA, bodyB, corr, j.RotationCompliance, hInv2, zeroVec3, false, zeroVec3, false); okc {
				applyCorrections(bodyA, bodyB, nr, lambda, false, zeroVec3, false, zeroVec3, false)
			}
		}
	}

	twistLimited := j.LimitMask&DOFTwist != 0 || j.DOFMask&DOFTwist == 0
	if twistLimited {
		// Recompute axes: the swing correction above may have moved them.
		poseA = j.worldAnchor(bodyA, j.LocalAnchorA)
		poseB = j.worldAnchor(bodyB, j.LocalAnchorB)
		axisA = poseA.Rotate(Vec3{1, 0, 0})
		axisB = poseB.Rotate(Vec3{1, 0, 0})
		common := safeNormalize(axisA.Add(axisB), axisA)

		yA := safeNormalize(projectOnPlane(poseA.Rotate(Vec3{0, 1, 0}), common), anyOrthogonal(common))
		yB := safeNormalize(projectOnPlane(poseB.Rotate(Vec3{0, 1, 0}), common), anyOrthogonal(common))

		if corr, ok := angleLimitCorrection(common, yA, yB, j.MinTwist, j.MaxTwist, maxCorr); ok {
			if nr, lambda, okc := computeCorrections(bodyA, bodyB, corr, j.RotationCompliance, hInv2, zeroVec3, false, zeroVec3, false); okc {
				applyCorrections(bodyA, bodyB, nr, lambda, false, zeroVec3, false, zeroVec3, false)
			}
		}
	}
}

func (j *JointConstraint) solveHinge(bodyA, bodyB *Body, hInv2 Scalar) {
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)
	axisA := poseA.Rotate(Vec3{1, 0, 0})
	axisB := poseB.Rotate(Vec3{1, 0, 0})

	align := axisA.Cross(axisB)
	if n, lambda, ok := computeCorrections(bodyA, bodyB, align, 0, hInv2, zeroVec3, false, zeroVec3, false); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, zeroVec3, false, zeroVec3, false)
	}

	if j.LimitMask&DOFTwist == 0 {
		return
	}
	poseA = j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB = j.worldAnchor(bodyB, j.LocalAnchorB)
	axisA = poseA.Rotate(Vec3{1, 0, 0})
	yA := poseA.Rotate(Vec3{0, 1, 0})
	yB := poseB.Rotate(Vec3{0, 1, 0})

	if corr, ok := angleLimitCorrection(axisA, yA, yB, j.MinTwist, j.MaxTwist, maxPhi); ok {
		if n, lambda, okc := computeCorrections(bodyA, bodyB, corr, j.RotationCompliance, hInv2, zeroVec3, false, zeroVec3, false); okc {
			applyCorrections(bodyA, bodyB, n, lambda, false, zeroVec3, false, zeroVec3, false)
		}
	}
}

func (j *JointConstraint) solveFixedPosition(bodyA, bodyB *Body, hInv2 Scalar) {
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)
	delta := poseB.Position.Sub(poseA.Position)
	if n, lambda, ok := computeCorrections(bodyA, bodyB, delta, j.PositionCompliance, hInv2, poseA.Position, true, poseB.Position, true); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, poseA.Position, true, poseB.Position, true)
	}
}

// solvePrismaticPlanar handles the Planar-set regime: when Linear is not
// also free this is a planar joint (axial motion locked), otherwise it is
// a cylindrical/prismatic joint (radial motion locked), per spec §4.7.
func (j *JointConstraint) solvePrismaticPlanar(bodyA, bodyB *Body, hInv2 Scalar) {
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)
	axis := poseA.Rotate(Vec3{1, 0, 0})
	diff := poseB.Position.Sub(poseA.Position)
	hasLinear := j.DOFMask&DOFLinear != 0

	var delta Vec3
	if !hasLinear {
		delta = axis.Mul(diff.Dot(axis))
	} else {
		delta = projectOnPlane(diff, axis)
	}
	if n, lambda, ok := computeCorrections(bodyA, bodyB, delta, j.PositionCompliance, hInv2, poseA.Position, true, poseB.Position, true); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, poseA.Position, true, poseB.Position, true)
	}

	if hasLinear && j.LimitMask&DOFLinear != 0 {
		j.applyAxialLimit(bodyA, bodyB, poseA, poseB, axis, hInv2)
	}
	if j.LimitMask&DOFPlanar != 0 {
		j.applyRadialLimit(bodyA, bodyB, poseA, poseB, axis, hInv2)
	}
}

func (j *JointConstraint) solveSliding(bodyA, bodyB *Body, hInv2 Scalar) {
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)
	axis := poseA.Rotate(Vec3{1, 0, 0})
	diff := poseB.Position.Sub(poseA.Position)

	radial := projectOnPlane(diff, axis)
	if n, lambda, ok := computeCorrections(bodyA, bodyB, radial, j.PositionCompliance, hInv2, poseA.Position, true, poseB.Position, true); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, poseA.Position, true, poseB.Position, true)
	}

	if j.LimitMask&DOFLinear != 0 {
		j.applyAxialLimit(bodyA, bodyB, poseA, poseB, axis, hInv2)
	}
}

func (j *JointConstraint) applyAxialLimit(bodyA, bodyB *Body, poseA, poseB Pose, axis Vec3, hInv2 Scalar) {
	diff := poseB.Position.Sub(poseA.Position)
	axialDist := diff.Dot(axis)
	if absf(axialDist) <= j.LinearLimit {
		return
	}
	clamped := clampf(axialDist, -j.LinearLimit, j.LinearLimit)
	delta := axis.Mul(axialDist - clamped)
	if n, lambda, ok := computeCorrections(bodyA, bodyB, delta, j.PositionCompliance, hInv2, poseA.Position, true, poseB.Position, true); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, poseA.Position, true, poseB.Position, true)
	}
}

func (j *JointConstraint) applyRadialLimit(bodyA, bodyB *Body, poseA, poseB Pose, axis Vec3, hInv2 Scalar) {
	diff := poseB.Position.Sub(poseA.Position)
	radial := projectOnPlane(diff, axis)
	dist := radial.Len()
	if dist <= j.LinearLimit || dist < epsilon {
		return
	}
	delta := radial.Mul(1 - j.LinearLimit/dist)
	if n, lambda, ok := computeCorrections(bodyA, bodyB, delta, j.PositionCompliance, hInv2, poseA.Position, true, poseB.Position, true); ok {
		applyCorrections(bodyA, bodyB, n, lambda, false, poseA.Position, true, poseB.Position, true)
	}
}

// SolveVelocities applies linear damping at the anchor points and angular
// damping between body angular velocities, per spec §4.7.
func (j *JointConstraint) SolveVelocities(c *Constraint, w *World, h, hInv2 Scalar) {
	bodyA, bodyB := c.bodies(w)
	poseA := j.worldAnchor(bodyA, j.LocalAnchorA)
	poseB := j.worldAnchor(bodyB, j.LocalAnchorB)

	if j.PositionDamping > 0 {
		dampRelativeVelocity(bodyA, bodyB, poseA.Position, true, poseB.Position, true, minf(j.PositionDamping*h, 1))
	}
	if j.RotationDamping > 0 {
		dampRelativeVelocity(bodyA, bodyB, zeroVec3, false, zeroVec3, false, minf(j.RotationDamping*h, 1))
	}
}

// angleLimitCorrection is the joint angle-limit helper from spec §4.7:
// phi = asin(n . (a x b)), sign-corrected via a.b and wrapped into
// (-pi, pi], clamped to [minAngle, maxAngle] if outside it, and turned
// into a corrective angular-axis vector capped at maxCorr.
func angleLimitCorrection(n, a, b Vec3, minAngle, maxAngle, maxCorr Scalar) (Vec3, bool) {
	dot := clampf(n.Dot(a.Cross(b)), -1, 1)
	phi := math.Asin(dot)
	if a.Dot(b) < 0 {
		phi = piConst - phi
	}
	if phi > piConst {
		phi -= 2 * piConst
	} else if phi < -piConst {
		phi += 2 * piConst
	}
	if phi >= minAngle && phi <= maxAngle {
		return zeroVec3, false
	}
	clamped := clampf(phi, minAngle, maxAngle)
	q := quatFromAngleAxis(clamped, n)
	aRot := q.Rotate(a)
	axis := aRot.Cross(b)
	if l := axis.Len(); l > maxCorr && l > epsilon {
		axis = axis.Mul(maxCorr / l)
	}
	return axis, true
}
