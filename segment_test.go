package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestPointOnSegment(t *testing.T) {
	a, b := Vec3{0, 0, 0}, Vec3{10, 0, 0}

	mid := nearestPointOnSegment(Vec3{5, 3, 0}, a, b)
	assert.InDelta(t, 5.0, mid.X(), 1e-9)
	assert.InDelta(t, 0.0, mid.Y(), 1e-9)

	beforeA := nearestPointOnSegment(Vec3{-5, 1, 0}, a, b)
	assert.Equal(t, a, beforeA)

	afterB := nearestPointOnSegment(Vec3{15, 1, 0}, a, b)
	assert.Equal(t, b, afterB)
}

func TestNearestPointOnDegenerateSegment(t *testing.T) {
	a := Vec3{1, 1, 1}
	got := nearestPointOnSegment(Vec3{9, 9, 9}, a, a)
	assert.Equal(t, a, got)
}

func TestNearestSegmentSegmentCrossing(t *testing.T) {
	// Two perpendicular segments crossing near their midpoints at different
	// heights: closest approach should sit at each segment's own midpoint.
	c1, c2 := nearestSegmentSegment(
		Vec3{-5, 1, 0}, Vec3{5, 1, 0},
		Vec3{0, 0, -5}, Vec3{0, 0, 5},
	)
	assert.InDelta(t, 0.0, c1.X(), 1e-9)
	assert.InDelta(t, 1.0, c1.Y(), 1e-9)
	assert.InDelta(t, 0.0, c2.X(), 1e-9)
	assert.InDelta(t, 0.0, c2.Z(), 1e-9)
}

func TestNearestSegmentSegmentParallel(t *testing.T) {
	c1, c2 := nearestSegmentSegment(
		Vec3{0, 0, 0}, Vec3{10, 0, 0},
		Vec3{0, 2, 0}, Vec3{10, 2, 0},
	)
	d := c1.Sub(c2)
	assert.InDelta(t, 2.0, d.Len(), 1e-9)
}

func TestNearestSegmentSegmentDegenerateBoth(t *testing.T) {
	p, q := Vec3{1, 2, 3}, Vec3{4, 5, 6}
	c1, c2 := nearestSegmentSegment(p, p, q, q)
	assert.Equal(t, p, c1)
	assert.Equal(t, q, c2)
}
