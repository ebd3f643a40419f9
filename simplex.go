package physics

import "math"

// csoVertex is a single support point on the Minkowski difference of two
// colliders (the CSO, spec GLOSSARY): A and B are the world-space support
// points that produced it, Diff = A - B is the CSO point itself.
type csoVertex struct {
	A, B, Diff Vec3
}

func csoSupport(a, b *Collider, poseA, poseB Pose, dir Vec3) csoVertex {
	sa := a.Support(dir, poseA)
	sb := b.Support(dir.Mul(-1), poseB)
	return csoVertex{A: sa, B: sb, Diff: sa.Sub(sb)}
}

// simplex holds up to four CSO vertices — the working set GJK iterates
// and EPA seeds its polytope from (spec §4.4.2).
type simplex struct {
	v [4]csoVertex
	n int
}

func (s *simplex) push(v csoVertex) {
	s.v[s.n] = v
	s.n++
}

// reduce keeps only the vertices at the given indices (the minimal
// sub-simplex returned by nearestOnSimplex), in order.
func (s *simplex) reduce(indices []int) {
	var nv [4]csoVertex
	for i, idx := range indices {
		nv[i] = s.v[idx]
	}
	s.v = nv
	s.n = len(indices)
}

// nearestOnSimplex returns the point on the simplex spanned by the first
// s.n vertices nearest to the origin, and the indices of the minimal
// sub-simplex (vertex, edge, or face) containing that nearest point, per
// spec §4.4.2: "on a segment, project and clamp; on a triangle, project
// onto the plane ... fall back to nearest edge when outside; on a
// tetrahedron, compute signed volumes ... fall back to nearest face when
// outside."
func (s *simplex) nearestOnSimplex() (nearest Vec3, used []int) {
	switch s.n {
	case 1:
		return s.v[0].Diff, []int{0}
	case 2:
		return nearestOnSegment(s.v[0].Diff, s.v[1].Diff)
	case 3:
		return nearestOnTriangle(s.v[0].Diff, s.v[1].Diff, s.v[2].Diff)
	case 4:
		return nearestOnTetrahedron(s.v[0].Diff, s.v[1].Diff, s.v[2].Diff, s.v[3].Diff)
	default:
		return zeroVec3, nil
	}
}

var originPt = zeroVec3

func nearestOnSegment(a, b Vec3) (Vec3, []int) {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < epsilon {
		return a, []int{0}
	}
	t := originPt.Sub(a).Dot(ab) / denom
	if t <= 0 {
		return a, []int{0}
	}
	if t >= 1 {
		return b, []int{1}
	}
	return a.Add(ab.Mul(t)), []int{0, 1}
}

// nearestOnTriangle is the classic closest-point-on-triangle-to-a-point
// test (Ericson, Real-Time Collision Detection §5.1.5), specialized to
// the origin and reporting which sub-feature (vertex/edge/face) holds it.
func nearestOnTriangle(a, b, c Vec3) (Vec3, []int) {
	p := originPt
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, []int{0}
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, []int{1}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), []int{0, 1}
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, []int{2}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), []int{0, 2}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), []int{1, 2}
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), []int{0, 1, 2}
}

// nearestOnTetrahedron finds the nearest point to the origin on a
// tetrahedron: if the origin is inside, the nearest point is the origin
// itself (distance zero, GJK's intersection case); otherwise it must lie
// on one of the four faces, found by testing which face planes the
// origin is on the outside of and taking the nearest candidate.
func nearestOnTetrahedron(a, b, c, d Vec3) (Vec3, []int) {
	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	pts := [4]Vec3{a, b, c, d}

	bestDistSq := math.Inf(1)
	var bestPoint Vec3
	var bestUsed []int
	anyOutside := false

	for _, f := range faces {
		fa, fb, fc := pts[f[0]], pts[f[1]], pts[f[2]]
		// Outward normal: the fourth (opposite) vertex must be on the
		// negative side for the normal to point away from the tetrahedron.
		opp := oppositeVertex(pts, f)
		n := fb.Sub(fa).Cross(fc.Sub(fa))
		if n.Dot(opp.Sub(fa)) > 0 {
			n = n.Mul(-1)
		}
		if n.Dot(originPt.Sub(fa)) <= epsilon {
			continue // origin is on the inside of this face
		}
		anyOutside = true
		p, localUsed := nearestOnTriangle(fa, fb, fc)
		distSq := p.Dot(p)
		if distSq < bestDistSq {
			bestDistSq = distSq
			bestPoint = p
			bestUsed = remapIndices(f, localUsed)
		}
	}

	if !anyOutside {
		return originPt, []int{0, 1, 2, 3}
	}
	return bestPoint, bestUsed
}

func oppositeVertex(pts [4]Vec3, face [3]int) Vec3 {
	has := func(i int) bool { return face[0] == i || face[1] == i || face[2] == i }
	for i := 0; i < 4; i++ {
		if !has(i) {
			return pts[i]
		}
	}
	return pts[0]
}

func remapIndices(face [3]int, local []int) []int {
	out := make([]int, len(local))
	for i, l := range local {
		out[i] = face[l]
	}
	return out
}
