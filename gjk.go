package physics

// gjkMaxIterations bounds the GJK loop per spec §4.4.2 / §5 (hard
// iteration ceiling on every nested solver level).
const gjkMaxIterations = 16

// gjkEpsilon is the squared-distance-to-origin tolerance below which the
// simplex is considered to contain the origin (intersection confirmed).
const gjkEpsilon = 1e-10

// gjkResult carries the final simplex out of a run so EPA can seed its
// polytope from it without re-deriving support points.
type gjkResult struct {
	intersecting bool
	simplex      simplex
}

// runGJK decides whether colliders a and b (in their given world poses)
// intersect, by testing whether the origin lies inside their Minkowski
// difference (spec §4.4.2). logger receives a Debug report if the
// iteration ceiling is hit without resolving containment either way.
func runGJK(a, b *Collider, poseA, poseB Pose, logger Logger) gjkResult {
	dir := Vec3{1, 0, 0}
	s := simplex{}
	s.push(csoSupport(a, b, poseA, poseB, dir))

	for iter := 0; iter < gjkMaxIterations; iter++ {
		nearest, used := s.nearestOnSimplex()
		if nearest.Dot(nearest) < gjkEpsilon {
			return gjkResult{intersecting: true, simplex: s}
		}

		s.reduce(used)

		searchDir := safeNormalize(nearest.Mul(-1), anyOrthogonal(safeNormalize(nearest, Vec3{0, 1, 0})))
		newVertex := csoSupport(a, b, poseA, poseB, searchDir)

		if newVertex.Diff.Dot(searchDir) <= nearest.Dot(searchDir)+epsilon {
			// No progress possible along the search direction: the origin
			// is not enclosed, so the shapes do not intersect.
			return gjkResult{intersecting: false, simplex: s}
		}

		if s.n >= 4 {
			// Degenerate: the simplex should never need a 5th vertex since
			// reduce() always drops it back below 4 first, but guard
			// against an unexpected four-vertex carry-over.
			return gjkResult{intersecting: false, simplex: s}
		}
		s.push(newVertex)
	}
	// Iteration-limit exhaustion (spec §7): report the best estimate. A
	// simplex that survived 16 iterations without shrinking to the origin
	// or failing the progress test is treated as non-intersecting.
	logger.Debugf("gjk: exhausted %d iterations without resolving containment", gjkMaxIterations)
	return gjkResult{intersecting: false, simplex: s}
}
