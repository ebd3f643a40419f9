package physics

// ContactPoint is the output of any narrowphase test: local-space contact
// points on colliders A and B, a world-space normal pointing from B to A,
// and the penetration depth (spec §3). The local points let the contact
// constraint recompute world-space positions each solver iteration
// without drifting as the bodies move (spec §4.4 "stamps A's and B's
// inverse-transformed positions").
type ContactPoint struct {
	LocalA Vec3
	LocalB Vec3
	Normal Vec3 // world space, points from B to A
	Depth  Scalar
}

// collideFn is a narrowphase test between two colliders given their
// current world poses. It reports whether they overlap and, if so, the
// contact point describing the overlap.
type collideFn func(a, b *Collider, poseA, poseB Pose) (ContactPoint, bool)

// pairDispatch describes how to invoke a closed-form (or GJK/EPA) test
// registered for a pair key. firstKind is the shape kind the registered
// function expects as its first ("a") argument; since pairKey ORs two
// one-hot bits together it is the same for (X,Y) and (Y,X), so the table
// alone can't tell which physical argument order collide() was called
// with — firstKind lets it decide per call whether to swap.
type pairDispatch struct {
	fn        collideFn
	firstKind ShapeKind
}

var dispatchTable = buildDispatchTable()

func buildDispatchTable() map[uint16]pairDispatch {
	t := make(map[uint16]pairDispatch)

	reg := func(a, b ShapeKind, fn collideFn) {
		t[pairKey(a, b)] = pairDispatch{fn: fn, firstKind: a}
	}

	reg(ShapeSphere, ShapeSphere, collideSphereSphere)
	reg(ShapeCapsule, ShapeCapsule, collideCapsuleCapsule)
	reg(ShapeSphere, ShapeCapsule, collideSphereCapsule)
	reg(ShapeBox, ShapeSphere, collideBoxSphere)

	return t
}

// collide runs the narrowphase test appropriate for the pair (a, b),
// falling back to GJK+EPA over the general Minkowski-difference CSO when
// no closed form is registered for the pair (spec §4.4). logger receives
// Debug-level reports of GJK/EPA degeneracies encountered along that
// fallback path; closed-form dispatch never fails iteratively, so it
// ignores logger entirely.
func collide(a, b *Collider, poseA, poseB Pose, logger Logger) (ContactPoint, bool) {
	key := pairKey(a.Shape.Kind, b.Shape.Kind)
	if d, ok := dispatchTable[key]; ok {
		if a.Shape.Kind != d.firstKind {
			cp, hit := d.fn(b, a, poseB, poseA)
			if hit {
				cp.LocalA, cp.LocalB = cp.LocalB, cp.LocalA
				cp.Normal = cp.Normal.Mul(-1)
			}
			return cp, hit
		}
		return d.fn(a, b, poseA, poseB)
	}
	return collideGJKEPA(a, b, poseA, poseB, logger)
}

func collideSphereSphere(a, b *Collider, poseA, poseB Pose) (ContactPoint, bool) {
	wpA := a.WorldPose(poseA)
	wpB := b.WorldPose(poseB)
	centerA := wpA.Transform(zeroVec3)
	centerB := wpB.Transform(zeroVec3)

	diff := centerA.Sub(centerB)
	dist := diff.Len()
	radiusSum := a.Shape.Radius + b.Shape.Radius
	if dist >= radiusSum {
		return ContactPoint{}, false
	}

	normal := safeNormalize(diff, Vec3{0, 1, 0})
	worldA := centerA.Sub(normal.Mul(a.Shape.Radius))
	worldB := centerB.Add(normal.Mul(b.Shape.Radius))

	return ContactPoint{
		LocalA: wpA.InverseTransform(worldA),
		LocalB: wpB.InverseTransform(worldB),
		Normal: normal,
		Depth:  radiusSum - dist,
	}, true
}

func collideCapsuleCapsule(a, b *Collider, poseA, poseB Pose) (ContactPoint, bool) {
	wpA := a.WorldPose(poseA)
	wpB := b.WorldPose(poseB)

	a1, a2 := a.Shape.segment()
	b1, b2 := b.Shape.segment()
	wa1, wa2 := wpA.Transform(a1), wpA.Transform(a2)
	wb1, wb2 := wpB.Transform(b1), wpB.Transform(b2)

	cA, cB := nearestSegmentSegment(wa1, wa2, wb1, wb2)
	diff := cA.Sub(cB)
	dist := diff.Len()
	radiusSum := a.Shape.Radius + b.Shape.Radius
	if dist >= radiusSum {
		return ContactPoint{}, false
	}

	normal := safeNormalize(diff, Vec3{0, 1, 0})
	worldA := cA.Sub(normal.Mul(a.Shape.Radius))
	worldB := cB.Add(normal.Mul(b.Shape.Radius))

	return ContactPoint{
		LocalA: wpA.InverseTransform(worldA),
		LocalB: wpB.InverseTransform(worldB),
		Normal: normal,
		Depth:  radiusSum - dist,
	}, true
}

func collideSphereCapsule(a, b *Collider, poseA, poseB Pose) (ContactPoint, bool) {
	wpA := a.WorldPose(poseA)
	wpB := b.WorldPose(poseB)

	center := wpA.Transform(zeroVec3)
	b1, b2 := b.Shape.segment()
	wb1, wb2 := wpB.Transform(b1), wpB.Transform(b2)

	cB := nearestPointOnSegment(center, wb1, wb2)
	diff := center.Sub(cB)
	dist := diff.Len()
	radiusSum := a.Shape.Radius + b.Shape.Radius
	if dist >= radiusSum {
		return ContactPoint{}, false
	}

	normal := safeNormalize(diff, Vec3{0, 1, 0})
	worldA := center.Sub(normal.Mul(a.Shape.Radius))
	worldB := cB.Add(normal.Mul(b.Shape.Radius))

	return ContactPoint{
		LocalA: wpA.InverseTransform(worldA),
		LocalB: wpB.InverseTransform(worldB),
		Normal: normal,
		Depth:  radiusSum - dist,
	}, true
}

// collideBoxSphere implements spec §4.4's box-sphere dispatch: the sphere
// center is transformed into box-local space; if it's inside the box the
// least-penetrating face is chosen, otherwise the closest point on the box
// surface is used. The returned normal points from the sphere (B) toward
// the box (A).
func collideBoxSphere(a, b *Collider, poseA, poseB Pose) (ContactPoint, bool) {
	wpA := a.WorldPose(poseA) // box
	wpB := b.WorldPose(poseB) // sphere

	centerWorld := wpB.Transform(zeroVec3)
	localCenter := wpA.InverseTransform(centerWorld)
	he := a.Shape.HalfExtents
	radius := b.Shape.Radius

	inside := absf(localCenter.X()) <= he.X() && absf(localCenter.Y()) <= he.Y() && absf(localCenter.Z()) <= he.Z()

	var localNormal Vec3
	var depth Scalar
	var localContactOnBox Vec3

	if inside {
		// Least-penetrating face: minimum of (extent - |offset|) per axis.
		bestAxis := 0
		bestPen := he.X() - absf(localCenter.X())
		for axis := 1; axis < 3; axis++ {
			pen := he[axis] - absf(localCenter[axis])
			if pen < bestPen {
				bestPen = pen
				bestAxis = axis
			}
		}
		localNormal = zeroVec3
		if localCenter[bestAxis] < 0 {
			localNormal[bestAxis] = -1
		} else {
			localNormal[bestAxis] = 1
		}
		localContactOnBox = localCenter
		localContactOnBox[bestAxis] = localNormal[bestAxis] * he[bestAxis]
		depth = radius + bestPen
	} else {
		clamped := Vec3{
			clampf(localCenter.X(), -he.X(), he.X()),
			clampf(localCenter.Y(), -he.Y(), he.Y()),
			clampf(localCenter.Z(), -he.Z(), he.Z()),
		}
		diff := localCenter.Sub(clamped)
		dist := diff.Len()
		if dist >= radius {
			return ContactPoint{}, false
		}
		localNormal = safeNormalize(diff, Vec3{0, 1, 0})
		localContactOnBox = clamped
		depth = radius - dist
	}

	worldNormal := wpA.Rotate(localNormal)
	worldContactOnBox := wpA.Transform(localContactOnBox)
	worldContactOnSphere := centerWorld.Sub(worldNormal.Mul(radius))

	return ContactPoint{
		LocalA: wpA.InverseTransform(worldContactOnBox),
		LocalB: wpB.InverseTransform(worldContactOnSphere),
		Normal: worldNormal.Mul(-1),
		Depth:  depth,
	}, true
}
