package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxBounds(center Vec3) Bounds {
	return NewBoundsCenterExtents(center, Vec3{0.5, 0.5, 0.5})
}

func TestBVHAddAndBoundsRoundTrip(t *testing.T) {
	tree := NewBVH()
	b := boxBounds(Vec3{1, 2, 3})
	h := tree.Add(b, AllCollisionGroups)
	assert.Equal(t, b, tree.Bounds(h))
}

func TestBVHUpdateChangesBounds(t *testing.T) {
	tree := NewBVH()
	h := tree.Add(boxBounds(Vec3{0, 0, 0}), AllCollisionGroups)
	moved := boxBounds(Vec3{10, 0, 0})
	tree.Update(h, moved, AllCollisionGroups)
	assert.Equal(t, moved, tree.Bounds(h))
}

func TestBVHRemoveThenAddReusesSlot(t *testing.T) {
	tree := NewBVH()
	h1 := tree.Add(boxBounds(Vec3{0, 0, 0}), AllCollisionGroups)
	tree.Remove(h1)
	h2 := tree.Add(boxBounds(Vec3{5, 5, 5}), AllCollisionGroups)
	assert.Equal(t, h1, h2)
	assert.Equal(t, boxBounds(Vec3{5, 5, 5}), tree.Bounds(h2))
}

func TestBVHIntersectsFindsOverlap(t *testing.T) {
	tree := NewBVH()
	near := tree.Add(boxBounds(Vec3{0, 0, 0}), AllCollisionGroups)
	far := tree.Add(boxBounds(Vec3{100, 0, 0}), AllCollisionGroups)

	var hits []BVHHandle
	tree.Intersects(boxBounds(Vec3{0.2, 0, 0}), AllCollisionGroups, func(h BVHHandle) {
		hits = append(hits, h)
	}, false)

	assert.Contains(t, hits, near)
	assert.NotContains(t, hits, far)
}

func TestBVHIntersectsRespectsMask(t *testing.T) {
	tree := NewBVH()
	const groupA CollisionMask = 1 << 0
	const groupB CollisionMask = 1 << 1

	h := tree.Add(boxBounds(Vec3{0, 0, 0}), groupA)

	var hitWithA, hitWithB bool
	tree.Intersects(boxBounds(Vec3{0, 0, 0}), groupA, func(got BVHHandle) {
		hitWithA = hitWithA || got == h
	}, false)
	tree.Intersects(boxBounds(Vec3{0, 0, 0}), groupB, func(got BVHHandle) {
		hitWithB = hitWithB || got == h
	}, false)

	assert.True(t, hitWithA)
	assert.False(t, hitWithB)
}

func TestBVHForEachOverlapPairNoSelfOrDuplicatePairs(t *testing.T) {
	tree := NewBVH()
	handles := make([]BVHHandle, 0, 5)
	for i := 0; i < 5; i++ {
		handles = append(handles, tree.Add(boxBounds(Vec3{Scalar(i) * 0.1, 0, 0}), AllCollisionGroups))
	}

	seen := make(map[pairKeyT]int)
	tree.ForEachOverlapPair(false, func(a, b BVHHandle) {
		require.NotEqual(t, a, b)
		key := makePairKey(uint64(a), uint64(b))
		seen[key]++
	})

	for key, count := range seen {
		assert.Equal(t, 1, count, "pair %v reported more than once", key)
	}
}

func TestBVHRaycastHitsAlongAxis(t *testing.T) {
	tree := NewBVH()
	h := tree.Add(boxBounds(Vec3{5, 0, 0}), AllCollisionGroups)

	var hit BVHHandle
	var found bool
	tree.Raycast(NewRay(zeroVec3, Vec3{1, 0, 0}), 100, AllCollisionGroups, func(got BVHHandle) {
		hit = got
		found = true
	})

	require.True(t, found)
	assert.Equal(t, h, hit)
}
