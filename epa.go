package physics

import "math"

// Capacities from spec §4.4.3: "polytope capacity is bounded (reference
// implementation uses 32 vertices, 128 triangles) so EPA must fail
// gracefully when exhausted."
const (
	epaMaxVertices  = 32
	epaMaxTriangles = 128
	epaMaxIterations = 28
	epaEpsilon       = 1e-6
)

type epaTriangle struct {
	a, b, c int // indices into the polytope's vertex list, CCW when viewed from outside
	normal  Vec3
	dist    Scalar // distance from origin to the supporting plane (>= 0 once converged)
	dead    bool
}

type polytope struct {
	verts []csoVertex
	tris  []epaTriangle
}

// EPAResult is the penetration-depth + contact data produced once GJK has
// confirmed an intersection.
type EPAResult struct {
	Normal Vec3 // points from B to A, i.e. out of B's side of the CSO
	Depth  Scalar
	LocalA Vec3
	LocalB Vec3
	ok     bool
}

// runEPA expands the GJK-terminal simplex into a polytope enclosing the
// origin and iteratively refines it toward the CSO boundary, per spec
// §4.4.3. logger receives Debug reports when the polytope's vertex/triangle
// capacity or the iteration ceiling is exhausted before full convergence;
// in both cases the best estimate found so far is still returned.
func runEPA(a, b *Collider, poseA, poseB Pose, seed simplex, logger Logger) (EPAResult, bool) {
	p := &polytope{}
	if !seedPolytope(p, a, b, poseA, poseB, seed) {
		return EPAResult{}, false
	}

	prevDist := math.Inf(1)

	for iter := 0; iter < epaMaxIterations; iter++ {
		idx, ok := closestTriangle(p)
		if !ok {
			return EPAResult{}, false
		}
		tri := p.tris[idx]

		if len(p.verts) >= epaMaxVertices || countAliveTriangles(p)+2 > epaMaxTriangles {
			logger.Debugf("epa: polytope capacity exhausted (%d verts, %d tris), using best estimate", len(p.verts), countAliveTriangles(p))
			return finishEPA(p, tri), true
		}

		support := csoSupport(a, b, poseA, poseB, tri.normal)
		newDist := support.Diff.Dot(tri.normal)

		if newDist-tri.dist < epaEpsilon || newDist-prevDist < epaEpsilon {
			return finishEPA(p, tri), true
		}
		prevDist = tri.dist

		if !expandPolytope(p, support) {
			// Expansion failed (degenerate silhouette): use best estimate.
			return finishEPA(p, tri), true
		}
	}
	idx, ok := closestTriangle(p)
	if !ok {
		return EPAResult{}, false
	}
	logger.Debugf("epa: exhausted %d iterations without full convergence, using best estimate", epaMaxIterations)
	return finishEPA(p, p.tris[idx]), true
}

func seedPolytope(p *polytope, a, b *Collider, poseA, poseB Pose, seed simplex) bool {
	verts := make([]csoVertex, seed.n)
	copy(verts, seed.v[:seed.n])

	// Expand a degenerate (point/segment/triangle) simplex into a full
	// tetrahedron using axis-aligned searches, per spec §4.4.3.
	axes := []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	axisIdx := 0
	for len(verts) < 4 && axisIdx < len(axes) {
		v := csoSupport(a, b, poseA, poseB, axes[axisIdx])
		axisIdx++
		if !nearDuplicate(verts, v.Diff) {
			verts = append(verts, v)
		}
	}
	if len(verts) < 4 {
		return false
	}
	verts = verts[:4]

	// Repair winding: if the signed volume U.(VxW), with U, V, W the edges
	// from vertex 0 to vertices 1, 2, 3, is positive (spec §4.4.3 numeric
	// notes), swap vertices 1 and 2 to flip it; addTriangle then orients
	// each face outward.
	v0, v1, v2, v3 := verts[0].Diff, verts[1].Diff, verts[2].Diff, verts[3].Diff
	u := v1.Sub(v0)
	vv := v2.Sub(v0)
	w := v3.Sub(v0)
	if u.Dot(vv.Cross(w)) > 0 {
		verts[1], verts[2] = verts[2], verts[1]
	}

	p.verts = verts
	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, f := range faces {
		addTriangle(p, f[0], f[1], f[2])
	}
	return true
}

func nearDuplicate(verts []csoVertex, d Vec3) bool {
	for _, v := range verts {
		if v.Diff.Sub(d).Len() < 1e-8 {
			return true
		}
	}
	return false
}

func addTriangle(p *polytope, ia, ib, ic int) int {
	a, b, c := p.verts[ia].Diff, p.verts[ib].Diff, p.verts[ic].Diff
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l > epsilon {
		n = n.Mul(1 / l)
	}
	dist := n.Dot(a)
	if dist < 0 {
		// Outward normals must have the origin behind the plane (dist >= 0
		// when origin is enclosed); flip if this face points inward.
		n = n.Mul(-1)
		dist = -dist
		ib, ic = ic, ib
	}
	idx := len(p.tris)
	p.tris = append(p.tris, epaTriangle{a: ia, b: ib, c: ic, normal: n, dist: dist})
	return idx
}

func countAliveTriangles(p *polytope) int {
	n := 0
	for _, t := range p.tris {
		if !t.dead {
			n++
		}
	}
	return n
}

func closestTriangle(p *polytope) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, t := range p.tris {
		if t.dead {
			continue
		}
		if t.dist < bestDist {
			bestDist = t.dist
			best = i
		}
	}
	return best, best >= 0
}

// expandPolytope adds a new CSO vertex to the polytope, removing every
// triangle the new vertex can "see" (its supporting plane is on the near
// side) and re-triangulating the resulting silhouette hole (spec
// §4.4.3 step 3).
func expandPolytope(p *polytope, support csoVertex) bool {
	if len(p.verts) >= epaMaxVertices {
		return false
	}
	newIdx := len(p.verts)
	p.verts = append(p.verts, support)
	newPoint := support.Diff

	type edge struct{ a, b int }
	edgeCount := make(map[edge]int)

	for i := range p.tris {
		t := &p.tris[i]
		if t.dead {
			continue
		}
		if t.normal.Dot(newPoint)-t.dist <= epaEpsilon {
			continue // not visible from the new point
		}
		t.dead = true
		for _, e := range [][2]int{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}} {
			edgeCount[edge{e[0], e[1]}]++
		}
	}

	var silhouette []edge
	for e := range edgeCount {
		rev := edge{e.b, e.a}
		if _, hasRev := edgeCount[rev]; !hasRev {
			silhouette = append(silhouette, e)
		}
	}
	if len(silhouette) == 0 {
		return false
	}

	for _, e := range silhouette {
		if countAliveTriangles(p)+1 > epaMaxTriangles {
			return false
		}
		addTriangle(p, e.a, e.b, newIdx)
	}
	return true
}

func finishEPA(p *polytope, tri epaTriangle) EPAResult {
	a, b, c := p.verts[tri.a], p.verts[tri.b], p.verts[tri.c]
	u, v, w := barycentricOfOriginProjection(a.Diff, b.Diff, c.Diff, tri.normal, tri.dist)

	localA := a.A.Mul(u).Add(b.A.Mul(v)).Add(c.A.Mul(w))
	localB := a.B.Mul(u).Add(b.B.Mul(v)).Add(c.B.Mul(w))

	return EPAResult{
		Normal: tri.normal.Mul(-1),
		Depth:  tri.dist,
		LocalA: localA,
		LocalB: localB,
		ok:     true,
	}
}

// barycentricOfOriginProjection returns the barycentric weights of the
// projection of the origin onto triangle (a,b,c), given its unit normal
// and plane distance (spec §4.4.3: "computing barycentric coordinates of
// the origin-projection on the final closest triangle").
func barycentricOfOriginProjection(a, b, c, normal Vec3, dist Scalar) (u, v, w Scalar) {
	proj := normal.Mul(dist) // origin - dist*(-normal) == normal*dist since origin is at 0

	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := proj.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if absf(denom) < epsilon {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	vw := (d11*d20 - d01*d21) / denom
	ww := (d00*d21 - d01*d20) / denom
	uw := 1 - vw - ww
	return uw, vw, ww
}

// collideGJKEPA is the general-purpose narrowphase path for any pair of
// convex primitives without a closed-form test registered (spec §4.4).
func collideGJKEPA(a, b *Collider, poseA, poseB Pose, logger Logger) (ContactPoint, bool) {
	gjk := runGJK(a, b, poseA, poseB, logger)
	if !gjk.intersecting {
		return ContactPoint{}, false
	}
	epa, ok := runEPA(a, b, poseA, poseB, gjk.simplex, logger)
	if !ok {
		return ContactPoint{}, false
	}
	wpA := a.WorldPose(poseA)
	wpB := b.WorldPose(poseB)
	return ContactPoint{
		LocalA: wpA.InverseTransform(epa.LocalA),
		LocalB: wpB.InverseTransform(epa.LocalB),
		Normal: epa.Normal,
		Depth:  epa.Depth,
	}, true
}
