package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParticleBodyIsParticle(t *testing.T) {
	b := NewParticleBody(Vec3{0, 5, 0})
	assert.True(t, b.IsParticle())
}

func TestBodyIntegrateFreeFall(t *testing.T) {
	b := NewParticleBody(Vec3{0, 10, 0})
	b.InvMass = 1
	gravity := Vec3{0, -10, 0}

	b.Integrate(0.1, gravity)
	assert.InDelta(t, -1.0, b.Vel.Linear.Y(), 1e-9)
	assert.InDelta(t, 9.9, b.Pose.Position.Y(), 1e-9)
}

func TestBodyIntegrateStaticBodyDoesNotMove(t *testing.T) {
	b := NewBody(IdentityPose()) // InvMass 0 by default
	b.Integrate(0.1, Vec3{0, -10, 0})
	assert.Equal(t, zeroVec3, b.Vel.Linear)
	assert.Equal(t, zeroVec3, b.Pose.Position)
}

func TestBodyDifferentiateParticleFromPoseDelta(t *testing.T) {
	b := NewParticleBody(Vec3{0, 0, 0})
	b.PrevPose = b.Pose
	b.Pose.Position = Vec3{1, 0, 0}
	b.Differentiate(10) // hInv = 1/0.1
	assert.InDelta(t, 10.0, b.Vel.Linear.X(), 1e-9)
}

func TestBodyApplyRotationClampsToMaxPhi(t *testing.T) {
	b := NewBody(IdentityPose())
	b.InvInertia = Vec3{1, 1, 1}
	before := b.Pose.Rotation

	b.ApplyRotation(Vec3{0, 0, 0}, 0) // zero rotation: no-op
	assert.Equal(t, before, b.Pose.Rotation)

	// A huge angular velocity should still only rotate by maxPhi radians
	// this call, not the full requested angle.
	b.ApplyRotation(Vec3{0, 1, 0}, 100)
	angle, axis := quatAngleAxis(b.Pose.Rotation)
	assert.InDelta(t, maxPhi, angle, 1e-6)
	assert.InDelta(t, 1.0, axis.Y(), 1e-6)
}

func TestBodyApplyRotationPreservesWorldCOM(t *testing.T) {
	b := NewBody(NewPose(Vec3{5, 0, 0}, identQuat()))
	b.InvInertia = Vec3{1, 1, 1}
	b.MassPose = NewPose(Vec3{1, 0, 0}, identQuat()) // COM offset from pose origin

	comBefore := b.WorldCOM()
	b.ApplyRotation(Vec3{0, 1, 0}, 0.2)
	comAfter := b.WorldCOM()

	assert.InDelta(t, comBefore.X(), comAfter.X(), 1e-6)
	assert.InDelta(t, comBefore.Y(), comAfter.Y(), 1e-6)
	assert.InDelta(t, comBefore.Z(), comAfter.Z(), 1e-6)
}

func TestBodyGetInverseMassAndApplyCorrectionRoundTrip(t *testing.T) {
	b := NewBody(IdentityPose())
	b.InvMass = 1
	b.InvInertia = Vec3{1, 1, 1}

	n := Vec3{0, 1, 0}
	pos := Vec3{1, 0, 0}
	w := b.GetInverseMass(n, pos, true)
	assert.Greater(t, w, 0.0)

	b.ApplyCorrection(n.Mul(1), pos, true, true)
	assert.Greater(t, b.Vel.Linear.Y(), 0.0)
}

func TestBodyUpdateMassFromAttachedSphere(t *testing.T) {
	b := NewBody(IdentityPose())
	colliders := NewStore[Collider]()
	c := NewCollider(NewSphereShape(1))
	c.Density = 1
	ref := colliders.Add(*c)
	b.Colliders = append(b.Colliders, ref)

	b.UpdateMass(colliders, NewNopLogger())
	require.Greater(t, b.InvMass, 0.0)
	assert.False(t, b.IsStatic())
	expectedMass := (4.0 / 3.0) * piConst
	assert.InDelta(t, 1/expectedMass, b.InvMass, 1e-6)
}

func TestBodyUpdateMassNoCollidersIsStatic(t *testing.T) {
	b := NewBody(IdentityPose())
	colliders := NewStore[Collider]()
	b.UpdateMass(colliders, NewNopLogger())
	assert.True(t, b.IsStatic())
}
