package physics

import "math"

// RaycastHit is a single raycast result in the frame the cast was issued in.
type RaycastHit struct {
	Distance Scalar
	Point    Vec3
	Normal   Vec3
}

// raycastLocal intersects a ray (already expressed in the shape's local
// frame) against the shape, returning the nearest entry hit within
// [0, maxDistance].
func (s Shape) raycastLocal(r Ray, maxDistance Scalar) (RaycastHit, bool) {
	switch s.Kind {
	case ShapeSphere:
		return raycastSphere(r, s.Radius, maxDistance)
	case ShapeBox:
		return raycastBox(r, s.HalfExtents, maxDistance)
	case ShapeCapsule:
		return raycastCapsule(r, s, maxDistance)
	case ShapeCylinder:
		return raycastCylinder(r, s, maxDistance)
	default:
		return RaycastHit{}, false
	}
}

func raycastSphere(r Ray, radius, maxDistance Scalar) (RaycastHit, bool) {
	// |O + tD|^2 = radius^2, D unit length.
	oc := r.Origin
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return RaycastHit{}, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}
	p := r.PointAt(t)
	return RaycastHit{Distance: t, Point: p, Normal: safeNormalize(p, Vec3{0, 1, 0})}, true
}

func raycastBox(r Ray, halfExtents Vec3, maxDistance Scalar) (RaycastHit, bool) {
	b := NewBoundsCenterExtents(zeroVec3, halfExtents)
	t, ok := b.IntersectRay(r, maxDistance)
	if !ok {
		return RaycastHit{}, false
	}
	if t < 0 {
		t = 0
	}
	p := r.PointAt(t)
	return RaycastHit{Distance: t, Point: p, Normal: boxFaceNormal(p, halfExtents)}, true
}

func boxFaceNormal(p, halfExtents Vec3) Vec3 {
	best := 0
	bestDist := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		d := absf(absf(p[axis]) - halfExtents[axis])
		if d < bestDist {
			bestDist = d
			best = axis
		}
	}
	n := zeroVec3
	if p[best] < 0 {
		n[best] = -1
	} else {
		n[best] = 1
	}
	return n
}

func raycastCapsule(r Ray, s Shape, maxDistance Scalar) (RaycastHit, bool) {
	a, b := s.segment()
	// Closest approach of the ray to the segment's infinite line is solved
	// analytically only for simple cases; for a capsule it's cheaper and
	// robust enough to march the ray's closest-point-to-segment distance
	// against the radius via the same nearest-points routine used by the
	// narrowphase, testing against the two capped ends.
	closestOnSeg, tRay := raySegmentNearest(r, a, b)
	distToAxis := r.PointAt(tRay).Sub(closestOnSeg).Len()
	if distToAxis <= s.Radius {
		// Step back along the ray until exactly on the surface using a
		// short bisection; this is the narrowphase's accuracy budget, not
		// a full analytic quartic solve.
		lo, hi := 0.0, maxf(tRay, 0)
		if hi <= 0 {
			hi = s.Radius + a.Sub(b).Len() + 1
		}
		for i := 0; i < 40; i++ {
			mid := (lo + hi) / 2
			p := r.PointAt(mid)
			cp := nearestPointOnSegment(p, a, b)
			if p.Sub(cp).Len() > s.Radius {
				lo = mid
			} else {
				hi = mid
			}
		}
		t := hi
		if t < 0 || t > maxDistance {
			return RaycastHit{}, false
		}
		p := r.PointAt(t)
		cp := nearestPointOnSegment(p, a, b)
		return RaycastHit{Distance: t, Point: p, Normal: safeNormalize(p.Sub(cp), Vec3{0, 1, 0})}, true
	}
	return RaycastHit{}, false
}

func raycastCylinder(r Ray, s Shape, maxDistance Scalar) (RaycastHit, bool) {
	// Conservative: treat as capsule-ish bound via bisection against the
	// capped cylinder's signed distance (radial distance minus radius,
	// clipped to the +-h slab). This keeps cylinder raycasts finite-safe
	// without a dedicated analytic solver.
	h := s.Length / 2
	sdf := func(p Vec3) Scalar {
		radial := math.Sqrt(p.Y()*p.Y() + p.Z()*p.Z()) - s.Radius
		axial := absf(p.X()) - h
		return maxf(radial, axial)
	}
	if sdf(r.Origin) <= 0 {
		return RaycastHit{Distance: 0, Point: r.Origin, Normal: safeNormalize(Vec3{0, r.Origin.Y(), r.Origin.Z()}, Vec3{0, 1, 0})}, true
	}
	lo, hi := 0.0, maxDistance
	if sdf(r.PointAt(hi)) > 0 {
		return RaycastHit{}, false
	}
	for i := 0; i < 48; i++ {
		mid := (lo + hi) / 2
		if sdf(r.PointAt(mid)) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	t := hi
	p := r.PointAt(t)
	var n Vec3
	if absf(p.X())-h > -1e-6 {
		n = Vec3{signf(p.X()), 0, 0}
	} else {
		n = safeNormalize(Vec3{0, p.Y(), p.Z()}, Vec3{0, 1, 0})
	}
	return RaycastHit{Distance: t, Point: p, Normal: n}, true
}

// raySegmentNearest returns the point on segment [a,b] nearest to the ray,
// together with the ray parameter t of the closest approach.
func raySegmentNearest(r Ray, a, b Vec3) (Vec3, Scalar) {
	d1 := r.Direction
	d2 := b.Sub(a)
	rOff := r.Origin.Sub(a)

	aa := d1.Dot(d1)
	bb := d1.Dot(d2)
	cc := d2.Dot(d2)
	dd := d1.Dot(rOff)
	ee := d2.Dot(rOff)

	denom := aa*cc - bb*bb
	var t, u Scalar
	if absf(denom) > epsilon {
		t = (bb*ee - cc*dd) / denom
	}
	u = (bb*t + ee) / cc
	u = clampf(u, 0, 1)
	t = maxf(t, 0)
	return a.Add(d2.Mul(u)), t
}
