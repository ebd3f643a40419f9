package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldFallingSphereSettlesOnGroundPlane(t *testing.T) {
	w := NewWorld(Vec3{0, -10, 0})

	ground := w.AddStaticCollider(NewBoxShape(Vec3{50, 1, 50}), NewPose(Vec3{0, -1, 0}, identQuat()))
	_ = ground

	bodyRef := w.AddBody(NewPose(Vec3{0, 3, 0}, identQuat()))
	w.AddCollider(bodyRef, NewSphereShape(0.5), IdentityPose())

	for i := 0; i < 600; i++ {
		w.Simulate(1.0/60.0, 4)
	}

	b, ok := w.Bodies.Get(bodyRef)
	require.True(t, ok)
	// The sphere (radius 0.5) should come to rest with its bottom resting
	// on the ground box's top face (y = 0), i.e. center near y = 0.5, and
	// must not have tunnelled through into the ground.
	assert.Greater(t, b.Pose.Position.Y(), 0.3)
	assert.Less(t, b.Pose.Position.Y(), 1.0)
}

func TestWorldContactPoolReuseAcrossSteps(t *testing.T) {
	w := NewWorld(Vec3{0, -10, 0})
	w.AddStaticCollider(NewBoxShape(Vec3{50, 1, 50}), NewPose(Vec3{0, -1, 0}, identQuat()))
	bodyRef := w.AddBody(NewPose(Vec3{0, 0.4, 0}, identQuat()))
	w.AddCollider(bodyRef, NewSphereShape(0.5), IdentityPose())

	w.Simulate(1.0/60.0, 4)
	firstLive := w.liveContacts
	pool := w.contactPool

	w.Simulate(1.0/60.0, 4)
	assert.Equal(t, firstLive, w.liveContacts)
	assert.Same(t, &pool[0], &w.contactPool[0])
}

func TestWorldIgnoreBodyPairSuppressesContacts(t *testing.T) {
	w := NewWorld(zeroVec3)

	bodyA := w.AddBody(IdentityPose())
	refA := w.AddCollider(bodyA, NewSphereShape(1), IdentityPose())

	bodyB := w.AddBody(NewPose(Vec3{0.5, 0, 0}, identQuat()))
	refB := w.AddCollider(bodyB, NewSphereShape(1), IdentityPose())
	_ = refA
	_ = refB

	w.IgnoreBodyPair(bodyA, bodyB)
	w.Simulate(1.0/60.0, 1)
	assert.Equal(t, 0, w.liveContacts)

	w.StopIgnoringBodyPair(bodyA, bodyB)
	w.Simulate(1.0/60.0, 1)
	assert.Greater(t, w.liveContacts, 0)
}

func TestWorldIgnoreColliderPairSuppressesContacts(t *testing.T) {
	w := NewWorld(zeroVec3)

	bodyA := w.AddBody(IdentityPose())
	refA := w.AddCollider(bodyA, NewSphereShape(1), IdentityPose())

	bodyB := w.AddBody(NewPose(Vec3{0.5, 0, 0}, identQuat()))
	refB := w.AddCollider(bodyB, NewSphereShape(1), IdentityPose())

	w.IgnoreColliderPair(refA, refB)
	w.Simulate(1.0/60.0, 1)
	assert.Equal(t, 0, w.liveContacts)
}

func TestWorldJointIgnoreCollisionsSuppressesContacts(t *testing.T) {
	w := NewWorld(zeroVec3)

	bodyA := w.AddBody(IdentityPose())
	w.AddCollider(bodyA, NewSphereShape(1), IdentityPose())

	bodyB := w.AddBody(NewPose(Vec3{0.5, 0, 0}, identQuat()))
	w.AddCollider(bodyB, NewSphereShape(1), IdentityPose())

	joint := NewJointConstraint()
	w.AddConstraint(Constraint{BodyA: bodyA, BodyB: bodyB, IgnoreCollisions: true, Behavior: joint})

	w.Simulate(1.0/60.0, 1)
	assert.Equal(t, 0, w.liveContacts)
}

func TestWorldRemoveBodyRemovesOwnedColliders(t *testing.T) {
	w := NewWorld(zeroVec3)
	bodyRef := w.AddBody(IdentityPose())
	colRef := w.AddCollider(bodyRef, NewSphereShape(1), IdentityPose())

	w.RemoveBody(bodyRef)

	_, okBody := w.Bodies.Get(bodyRef)
	_, okCollider := w.Colliders.Get(colRef)
	assert.False(t, okBody)
	assert.False(t, okCollider)
}

func TestWorldForEachCollisionWithoutPriorSimulate(t *testing.T) {
	w := NewWorld(zeroVec3)
	bodyA := w.AddBody(IdentityPose())
	w.AddCollider(bodyA, NewSphereShape(1), IdentityPose())

	bodyB := w.AddBody(NewPose(Vec3{0.5, 0, 0}, identQuat()))
	w.AddCollider(bodyB, NewSphereShape(1), IdentityPose())

	var count int
	w.ForEachCollision(func(a, b Ref[Collider], cp ContactPoint) {
		count++
	})
	assert.Equal(t, 1, count)
}
