package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeVolumes(t *testing.T) {
	box := NewBoxShape(Vec3{1, 2, 3})
	assert.InDelta(t, 48.0, box.Volume(), 1e-9) // 2*4*6

	sphere := NewSphereShape(2)
	assert.InDelta(t, (4.0/3.0)*piConst*8, sphere.Volume(), 1e-9)
}

func TestBoxInertiaTensorDiagonal(t *testing.T) {
	box := NewBoxShape(Vec3{1, 2, 3})
	mass := Scalar(12)
	inertia := shapeInertiaTensor(box, mass)

	w, h, l := 2.0, 4.0, 6.0
	wantX := (mass / 12) * (h*h + l*l)
	wantY := (mass / 12) * (w*w + l*l)
	wantZ := (mass / 12) * (w*w + h*h)

	assert.InDelta(t, wantX, inertia.At(0, 0), 1e-9)
	assert.InDelta(t, wantY, inertia.At(1, 1), 1e-9)
	assert.InDelta(t, wantZ, inertia.At(2, 2), 1e-9)
	assert.InDelta(t, 0.0, inertia.At(0, 1), 1e-9)
}

func TestDiagonalizeDiagonalTensorIsUnchanged(t *testing.T) {
	m := diagMat3(2, 3, 4)
	rot, diag, ok := diagonalize(m, NewNopLogger())
	require.True(t, ok)
	assert.InDelta(t, 2.0, diag.X(), 1e-6)
	assert.InDelta(t, 3.0, diag.Y(), 1e-6)
	assert.InDelta(t, 4.0, diag.Z(), 1e-6)
	// Rotation should be (up to axis permutation/sign) orthonormal.
	col0 := Vec3{rot.At(0, 0), rot.At(1, 0), rot.At(2, 0)}
	assert.InDelta(t, 1.0, col0.Len(), 1e-6)
}

func TestDiagonalizeOffDiagonalTensor(t *testing.T) {
	// A symmetric tensor with off-diagonal coupling still must diagonalize
	// to strictly positive eigenvalues for a physically valid inertia.
	m := Mat3{
		2, 0.5, 0,
		0.5, 2, 0,
		0, 0, 3,
	}
	_, diag, ok := diagonalize(m, NewNopLogger())
	require.True(t, ok)
	assert.Greater(t, diag.X(), 0.0)
	assert.Greater(t, diag.Y(), 0.0)
	assert.Greater(t, diag.Z(), 0.0)
}

func TestDiagonalizeRejectsNonPositiveDefinite(t *testing.T) {
	m := diagMat3(1, -1, 1)
	_, _, ok := diagonalize(m, NewNopLogger())
	assert.False(t, ok)
}

func TestMassComputerSingleSphere(t *testing.T) {
	c := NewCollider(NewSphereShape(1))
	c.Density = 1
	mc := massComputer{}
	mc.add(c)

	expectedVolume := (4.0 / 3.0) * piConst
	assert.InDelta(t, expectedVolume, mc.acc.Mass, 1e-9)
	assert.Equal(t, zeroVec3, mc.acc.COM)
}

func TestMassComputerCombinesOffsetColliders(t *testing.T) {
	c1 := NewCollider(NewSphereShape(1))
	c1.Density = 1
	c1.LocalPose = NewPose(Vec3{-1, 0, 0}, identQuat())

	c2 := NewCollider(NewSphereShape(1))
	c2.Density = 1
	c2.LocalPose = NewPose(Vec3{1, 0, 0}, identQuat())

	mc := massComputer{}
	mc.add(c1)
	mc.add(c2)

	// Equal masses symmetric about the origin: combined COM must be zero.
	assert.InDelta(t, 0.0, mc.acc.COM.X(), 1e-9)
	assert.InDelta(t, 0.0, mc.acc.COM.Y(), 1e-9)
	assert.InDelta(t, 0.0, mc.acc.COM.Z(), 1e-9)
}
