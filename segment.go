package physics

// nearestPointOnSegment returns the point on segment [a,b] nearest to p.
func nearestPointOnSegment(p, a, b Vec3) Vec3 {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < epsilon {
		return a
	}
	t := clampf(p.Sub(a).Dot(ab)/denom, 0, 1)
	return a.Add(ab.Mul(t))
}

// nearestSegmentSegment computes the closest points between segments
// [p1,q1] and [p2,q2], per spec §4.4.1: degenerate segments fall back to
// point-to-segment, near-parallel segments are detected via
// det = uu*vv - uv^2 <= eps*uu*vv and take the midpoint of segment 1,
// otherwise the 2D linear system is solved for segment 1's parameter; in
// both cases segment 2's parameter follows from it and, if it leaves
// [0,1], is clamped and segment 1's parameter is re-solved once.
func nearestSegmentSegment(p1, q1, p2, q2 Vec3) (c1, c2 Vec3) {
	d1 := q1.Sub(p1) // direction of segment 1
	d2 := q2.Sub(p2) // direction of segment 2
	r := p1.Sub(p2)

	uu := d1.Dot(d1)
	vv := d2.Dot(d2)
	uv := d1.Dot(d2)
	ur := d1.Dot(r)
	vr := d2.Dot(r)

	const segEps = 1e-10

	if uu < segEps && vv < segEps {
		return p1, p2
	}
	if uu < segEps {
		t := clampf(vr/vv, 0, 1)
		return p1, p2.Add(d2.Mul(t))
	}
	if vv < segEps {
		s := clampf(-ur/uu, 0, 1)
		return p1.Add(d1.Mul(s)), p2
	}

	det := uu*vv - uv*uv
	var s, t Scalar
	if det > segEps*uu*vv {
		s = clampf((uv*vr-vv*ur)/det, 0, 1)
	} else {
		// Parallel: start from the midpoint of segment 1.
		s = 0.5
	}
	t = (uv*s + vr) / vv

	if t < 0 {
		t = 0
		s = clampf(-ur/uu, 0, 1)
	} else if t > 1 {
		t = 1
		s = clampf((uv-ur)/uu, 0, 1)
	}

	c1 = p1.Add(d1.Mul(s))
	c2 = p2.Add(d2.Mul(t))
	return c1, c2
}
