package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollideSphereSphereOverlap(t *testing.T) {
	a := NewCollider(NewSphereShape(1))
	b := NewCollider(NewSphereShape(1))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{1.5, 0, 0}, identQuat())

	cp, hit := collideSphereSphere(a, b, poseA, poseB)
	require.True(t, hit)
	assert.InDelta(t, 0.5, cp.Depth, 1e-9)
	assert.InDelta(t, -1.0, cp.Normal.X(), 1e-9)
}

func TestCollideSphereSphereSeparated(t *testing.T) {
	a := NewCollider(NewSphereShape(1))
	b := NewCollider(NewSphereShape(1))
	_, hit := collideSphereSphere(a, b, IdentityPose(), NewPose(Vec3{10, 0, 0}, identQuat()))
	assert.False(t, hit)
}

func TestCollideCapsuleCapsuleOverlap(t *testing.T) {
	// Both capsules run parallel to X; offsetting B along Y keeps their
	// medial segments non-collinear so the perpendicular gap is meaningful.
	a := NewCollider(NewCapsuleShape(0.5, 2))
	b := NewCollider(NewCapsuleShape(0.5, 2))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{0, 0.8, 0}, identQuat())

	cp, hit := collideCapsuleCapsule(a, b, poseA, poseB)
	require.True(t, hit)
	assert.InDelta(t, 0.2, cp.Depth, 1e-6)
}

func TestCollideSphereCapsuleOverlap(t *testing.T) {
	a := NewCollider(NewSphereShape(0.5))
	b := NewCollider(NewCapsuleShape(0.5, 2))
	poseA := NewPose(Vec3{0, 0.7, 0}, identQuat())
	poseB := IdentityPose()

	cp, hit := collideSphereCapsule(a, b, poseA, poseB)
	require.True(t, hit)
	assert.InDelta(t, 0.3, cp.Depth, 1e-6)
}

func TestCollideBoxSphereOutside(t *testing.T) {
	box := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	sphere := NewCollider(NewSphereShape(0.5))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{1.3, 0, 0}, identQuat())

	cp, hit := collideBoxSphere(box, sphere, poseA, poseB)
	require.True(t, hit)
	assert.InDelta(t, 0.2, cp.Depth, 1e-6)
	assert.InDelta(t, -1.0, cp.Normal.X(), 1e-6)
}

func TestCollideBoxSphereCenterInside(t *testing.T) {
	box := NewCollider(NewBoxShape(Vec3{2, 2, 2}))
	sphere := NewCollider(NewSphereShape(0.5))
	// Sphere center near the +X face, well inside the box.
	poseA := IdentityPose()
	poseB := NewPose(Vec3{0.9, 0, 0}, identQuat())

	cp, hit := collideBoxSphere(box, sphere, poseA, poseB)
	require.True(t, hit)
	assert.Less(t, cp.Normal.X(), 0.0)
}

func TestCollideDispatchIsOrderIndependent(t *testing.T) {
	box := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	sphere := NewCollider(NewSphereShape(0.5))
	poseBox := IdentityPose()
	poseSphere := NewPose(Vec3{1.3, 0, 0}, identQuat())

	cpBoxFirst, hit1 := collide(box, sphere, poseBox, poseSphere, NewNopLogger())
	require.True(t, hit1)

	cpSphereFirst, hit2 := collide(sphere, box, poseSphere, poseBox, NewNopLogger())
	require.True(t, hit2)

	assert.InDelta(t, cpBoxFirst.Depth, cpSphereFirst.Depth, 1e-9)
	// Swapping argument order should mirror the normal and swap the local
	// contact points, not change the physical contact itself.
	assert.InDelta(t, cpBoxFirst.Normal.X(), -cpSphereFirst.Normal.X(), 1e-9)
	assert.InDelta(t, cpBoxFirst.LocalA.X(), cpSphereFirst.LocalB.X(), 1e-9)
	assert.InDelta(t, cpBoxFirst.LocalB.X(), cpSphereFirst.LocalA.X(), 1e-9)
}

func TestCollideFallsBackToGJKEPAForUnregisteredPair(t *testing.T) {
	box1 := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	box2 := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{1.5, 0, 0}, identQuat())

	cp, hit := collide(box1, box2, poseA, poseB, NewNopLogger())
	require.True(t, hit)
	assert.InDelta(t, 0.5, cp.Depth, 1e-3)
}
