package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJointFixedPositionClosesGapInOneStep(t *testing.T) {
	w := NewWorld(zeroVec3)
	bodyARef := w.AddBody(IdentityPose())
	bodyBRef := w.AddBody(NewPose(Vec3{2, 0, 0}, identQuat()))

	b, _ := w.Bodies.Get(bodyBRef)
	b.InvMass = 1

	joint := NewJointConstraint() // DOFMask zero: fixed orientation + fixed position
	c := &Constraint{BodyA: bodyARef, BodyB: bodyBRef, Behavior: joint}

	joint.SolvePositions(c, w, 1e6)

	b, _ = w.Bodies.Get(bodyBRef)
	assert.InDelta(t, 0.0, b.Pose.Position.X(), 1e-6)
}

func TestJointFixedPositionSplitsCorrectionByInverseMass(t *testing.T) {
	w := NewWorld(zeroVec3)
	bodyARef := w.AddBody(IdentityPose())
	bodyBRef := w.AddBody(NewPose(Vec3{2, 0, 0}, identQuat()))

	a, _ := w.Bodies.Get(bodyARef)
	a.InvMass = 1
	b, _ := w.Bodies.Get(bodyBRef)
	b.InvMass = 1

	joint := NewJointConstraint()
	c := &Constraint{BodyA: bodyARef, BodyB: bodyBRef, Behavior: joint}
	joint.SolvePositions(c, w, 1e6)

	a, _ = w.Bodies.Get(bodyARef)
	b, _ = w.Bodies.Get(bodyBRef)
	// Equal inverse masses: both bodies should move to meet at the midpoint.
	assert.InDelta(t, 1.0, a.Pose.Position.X(), 1e-6)
	assert.InDelta(t, 1.0, b.Pose.Position.X(), 1e-6)
}

func TestJointHingeAlignsAxesOverIterations(t *testing.T) {
	w := NewWorld(zeroVec3)
	bodyARef := w.AddBody(IdentityPose())
	a, _ := w.Bodies.Get(bodyARef)
	a.InvInertia = Vec3{1, 1, 1}

	rot := quatFromAngleAxis(0.4, Vec3{0, 0, 1})
	bodyBRef := w.AddBody(NewPose(zeroVec3, rot))
	b, _ := w.Bodies.Get(bodyBRef)
	b.InvInertia = Vec3{1, 1, 1}

	joint := NewJointConstraint()
	joint.DOFMask = DOFTwist
	c := &Constraint{BodyA: bodyARef, BodyB: bodyBRef, Behavior: joint}

	for i := 0; i < 30; i++ {
		joint.SolvePositions(c, w, 1e6)
	}

	aFinal, _ := w.Bodies.Get(bodyARef)
	bFinal, _ := w.Bodies.Get(bodyBRef)
	axisA := aFinal.Pose.Rotate(Vec3{1, 0, 0})
	axisB := bFinal.Pose.Rotate(Vec3{1, 0, 0})
	assert.Less(t, axisA.Cross(axisB).Len(), 0.05)
}

func TestAngleLimitCorrectionWithinLimitsIsNoop(t *testing.T) {
	n := Vec3{0, 0, 1}
	a := Vec3{1, 0, 0}
	b := quatFromAngleAxis(0.1, n).Rotate(a)

	_, ok := angleLimitCorrection(n, a, b, -0.5, 0.5, maxPhi)
	assert.False(t, ok)
}

func TestAngleLimitCorrectionBeyondLimitsProducesBoundedCorrection(t *testing.T) {
	n := Vec3{0, 0, 1}
	a := Vec3{1, 0, 0}
	b := quatFromAngleAxis(1.0, n).Rotate(a)

	corr, ok := angleLimitCorrection(n, a, b, -0.2, 0.2, maxPhi)
	require.True(t, ok)
	assert.LessOrEqual(t, corr.Len(), maxPhi+1e-9)
}

func TestJointSolveVelocitiesDampsRelativeVelocity(t *testing.T) {
	w := NewWorld(zeroVec3)
	bodyARef := w.AddBody(IdentityPose())
	bodyBRef := w.AddBody(IdentityPose())

	a, _ := w.Bodies.Get(bodyARef)
	a.InvMass = 1
	b, _ := w.Bodies.Get(bodyBRef)
	b.InvMass = 1
	b.Vel.Linear = Vec3{5, 0, 0}

	joint := NewJointConstraint()
	joint.PositionDamping = 10
	c := &Constraint{BodyA: bodyARef, BodyB: bodyBRef, Behavior: joint}

	joint.SolveVelocities(c, w, 0.1, 1e6)

	b, _ = w.Bodies.Get(bodyBRef)
	assert.Less(t, b.Vel.Linear.X(), 5.0)
}
