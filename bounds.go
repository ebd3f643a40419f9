package physics

import "math"

// Bounds is an axis-aligned box stored as center + extents, matching
// spec §3: extents must stay >= 0 in every component. Center/extents (as
// opposed to min/max) is what the BVH wants: merge and surface-area both
// fall out of simple vector ops, and an "invalid"/empty box is naturally
// representable as negative-infinity extents rather than an inverted
// min > max pair.
type Bounds struct {
	Center  Vec3
	Extents Vec3
}

// NewBoundsMinMax builds a Bounds from opposite corners.
func NewBoundsMinMax(min, max Vec3) Bounds {
	return Bounds{
		Center:  min.Add(max).Mul(0.5),
		Extents: max.Sub(min).Mul(0.5),
	}
}

// NewBoundsCenterExtents builds a Bounds directly, clamping extents to
// be non-negative so the invariant always holds regardless of caller input.
func NewBoundsCenterExtents(center, extents Vec3) Bounds {
	return Bounds{
		Center: center,
		Extents: Vec3{
			maxf(extents.X(), 0),
			maxf(extents.Y(), 0),
			maxf(extents.Z(), 0),
		},
	}
}

// EmptyBounds returns a Bounds that contains nothing and merges as the
// identity element: Merge(EmptyBounds(), b) == b.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{Center: zeroVec3, Extents: Vec3{-inf, -inf, -inf}}
}

func (b Bounds) Min() Vec3 { return b.Center.Sub(b.Extents) }
func (b Bounds) Max() Vec3 { return b.Center.Add(b.Extents) }

// SurfaceArea returns the total surface area of the box, the cost metric
// the BVH's SAH insertion heuristic minimizes.
func (b Bounds) SurfaceArea() Scalar {
	d := b.Extents.Mul(2)
	return 2 * (d.X()*d.Y() + d.Y()*d.Z() + d.Z()*d.X())
}

// Volume of the box.
func (b Bounds) Volume() Scalar {
	d := b.Extents.Mul(2)
	return d.X() * d.Y() * d.Z()
}

// ContainsInclusive reports whether other lies entirely within b, with
// touching faces counting as contained.
func (b Bounds) ContainsInclusive(other Bounds) bool {
	bMin, bMax := b.Min(), b.Max()
	oMin, oMax := other.Min(), other.Max()
	return oMin.X() >= bMin.X() && oMax.X() <= bMax.X() &&
		oMin.Y() >= bMin.Y() && oMax.Y() <= bMax.Y() &&
		oMin.Z() >= bMin.Z() && oMax.Z() <= bMax.Z()
}

// IntersectsInclusive reports whether b and other overlap, touching faces
// counting as an intersection.
func (b Bounds) IntersectsInclusive(other Bounds) bool {
	bMin, bMax := b.Min(), b.Max()
	oMin, oMax := other.Min(), other.Max()
	return bMin.X() <= oMax.X() && bMax.X() >= oMin.X() &&
		bMin.Y() <= oMax.Y() && bMax.Y() >= oMin.Y() &&
		bMin.Z() <= oMax.Z() && bMax.Z() >= oMin.Z()
}

// IntersectsExclusive is IntersectsInclusive without the touching-face case.
func (b Bounds) IntersectsExclusive(other Bounds) bool {
	bMin, bMax := b.Min(), b.Max()
	oMin, oMax := other.Min(), other.Max()
	return bMin.X() < oMax.X() && bMax.X() > oMin.X() &&
		bMin.Y() < oMax.Y() && bMax.Y() > oMin.Y() &&
		bMin.Z() < oMax.Z() && bMax.Z() > oMin.Z()
}

// Merge returns the tight bounding box enclosing both b and other.
func (b Bounds) Merge(other Bounds) Bounds {
	return NewBoundsMinMax(vecMin(b.Min(), other.Min()), vecMax(b.Max(), other.Max()))
}

// MergePoint returns the tight bounding box enclosing b and the point p.
func (b Bounds) MergePoint(p Vec3) Bounds {
	return NewBoundsMinMax(vecMin(b.Min(), p), vecMax(b.Max(), p))
}

// Expand grows the box by amount in every direction (shrinks if negative,
// clamped so extents never go below zero).
func (b Bounds) Expand(amount Scalar) Bounds {
	return NewBoundsCenterExtents(b.Center, b.Extents.Add(Vec3{amount, amount, amount}))
}

// IntersectRay returns the signed entry distance along the ray, or
// (0, false) if the ray misses. The distance is negative when the ray's
// origin is already inside the box, matching spec §3.
func (b Bounds) IntersectRay(r Ray, maxDistance Scalar) (Scalar, bool) {
	bMin, bMax := b.Min(), b.Max()
	tMin, tMax := math.Inf(-1), math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		lo, hi := bMin[axis], bMax[axis]
		if absf(d) < epsilon {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		invD := 1 / d
		t1 := (lo - o) * invD
		t2 := (hi - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = maxf(tMin, t1)
		tMax = minf(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 || tMin > maxDistance {
		return 0, false
	}
	return tMin, true
}

func vecMin(a, b Vec3) Vec3 {
	return Vec3{minf(a.X(), b.X()), minf(a.Y(), b.Y()), minf(a.Z(), b.Z())}
}

func vecMax(a, b Vec3) Vec3 {
	return Vec3{maxf(a.X(), b.X()), maxf(a.Y(), b.Y()), maxf(a.Z(), b.Z())}
}
