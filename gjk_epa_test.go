package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGJKSeparatedSpheres(t *testing.T) {
	a := NewCollider(NewSphereShape(1))
	b := NewCollider(NewSphereShape(1))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{10, 0, 0}, identQuat())

	res := runGJK(a, b, poseA, poseB, NewNopLogger())
	assert.False(t, res.intersecting)
}

func TestRunGJKOverlappingSpheres(t *testing.T) {
	a := NewCollider(NewSphereShape(1))
	b := NewCollider(NewSphereShape(1))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{1, 0, 0}, identQuat())

	res := runGJK(a, b, poseA, poseB, NewNopLogger())
	assert.True(t, res.intersecting)
}

func TestCollideGJKEPABoxBoxMatchesOverlap(t *testing.T) {
	a := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	b := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{1.5, 0, 0}, identQuat())

	cp, hit := collideGJKEPA(a, b, poseA, poseB, NewNopLogger())
	require.True(t, hit)
	// Two unit half-extent boxes, centers 1.5 apart along X: overlap is
	// (1+1) - 1.5 = 0.5 along the X axis.
	assert.InDelta(t, 0.5, cp.Depth, 1e-3)
	assert.Greater(t, absf(cp.Normal.X()), 0.9)
}

func TestCollideGJKEPABoxBoxSeparated(t *testing.T) {
	a := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	b := NewCollider(NewBoxShape(Vec3{1, 1, 1}))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{10, 0, 0}, identQuat())

	_, hit := collideGJKEPA(a, b, poseA, poseB, NewNopLogger())
	assert.False(t, hit)
}

func TestCollideGJKEPAAgreesWithClosedFormSphereSphere(t *testing.T) {
	a := NewCollider(NewSphereShape(1))
	b := NewCollider(NewSphereShape(1.5))
	poseA := IdentityPose()
	poseB := NewPose(Vec3{2, 0, 0}, identQuat())

	closed, okClosed := collideSphereSphere(a, b, poseA, poseB)
	require.True(t, okClosed)

	gjkEpa, okGJK := collideGJKEPA(a, b, poseA, poseB, NewNopLogger())
	require.True(t, okGJK)

	assert.InDelta(t, closed.Depth, gjkEpa.Depth, 1e-3)
}

// identQuat avoids importing mgl64 directly in every test file.
func identQuat() Quat {
	return IdentityPose().Rotation
}
