package physics

// defaultPadFactor scales the predictive velocity margin the broadphase
// adds to a dynamic collider's tree bounds (spec §4.3: "predict the next
// bounds using padFactor * dt * linear_velocity").
const defaultPadFactor = 2.0

type broadphaseEntry struct {
	collider     Ref[Collider]
	bvh          BVHHandle
	paddedBounds Bounds
	mask         CollisionMask
}

// Broadphase maintains two BVHs — one for moving colliders, one for
// immobile ones — per spec §4.3.
type Broadphase struct {
	dynamic *BVH
	static  *BVH

	dynamicEntries map[BVHHandle]*broadphaseEntry
	staticEntries  map[BVHHandle]*broadphaseEntry

	colliderToDynamic map[Ref[Collider]]BVHHandle
	colliderToStatic  map[Ref[Collider]]BVHHandle

	PadFactor Scalar
}

// NewBroadphase returns an empty two-tree broadphase.
func NewBroadphase() *Broadphase {
	return &Broadphase{
		dynamic:           NewBVH(),
		static:            NewBVH(),
		dynamicEntries:    make(map[BVHHandle]*broadphaseEntry),
		staticEntries:     make(map[BVHHandle]*broadphaseEntry),
		colliderToDynamic: make(map[Ref[Collider]]BVHHandle),
		colliderToStatic:  make(map[Ref[Collider]]BVHHandle),
		PadFactor:         defaultPadFactor,
	}
}

// Add registers a dynamic (movable) collider.
func (bp *Broadphase) Add(ref Ref[Collider], bounds Bounds, mask CollisionMask) {
	h := bp.dynamic.Add(bounds, mask)
	bp.dynamicEntries[h] = &broadphaseEntry{collider: ref, bvh: h, paddedBounds: bounds, mask: mask}
	bp.colliderToDynamic[ref] = h
}

// Remove unregisters a dynamic collider.
func (bp *Broadphase) Remove(ref Ref[Collider]) {
	h, ok := bp.colliderToDynamic[ref]
	if !ok {
		return
	}
	bp.dynamic.Remove(h)
	delete(bp.dynamicEntries, h)
	delete(bp.colliderToDynamic, ref)
}

// AddStatic registers an immobile collider.
func (bp *Broadphase) AddStatic(ref Ref[Collider], bounds Bounds, mask CollisionMask) {
	h := bp.static.Add(bounds, mask)
	bp.staticEntries[h] = &broadphaseEntry{collider: ref, bvh: h, paddedBounds: bounds, mask: mask}
	bp.colliderToStatic[ref] = h
}

// RemoveStatic unregisters an immobile collider.
func (bp *Broadphase) RemoveStatic(ref Ref[Collider]) {
	h, ok := bp.colliderToStatic[ref]
	if !ok {
		return
	}
	bp.static.Remove(h)
	delete(bp.staticEntries, h)
	delete(bp.colliderToStatic, ref)
}

// UpdateStatic updates a static collider's tree bounds/mask if they have
// actually changed (spec §4.3: "static entries are updated only if their
// bounds have changed").
func (bp *Broadphase) UpdateStatic(ref Ref[Collider], bounds Bounds, mask CollisionMask) {
	h, ok := bp.colliderToStatic[ref]
	if !ok {
		return
	}
	entry := bp.staticEntries[h]
	if entry.paddedBounds == bounds && entry.mask == mask {
		return
	}
	entry.paddedBounds = bounds
	entry.mask = mask
	bp.static.Update(h, bounds, mask)
}

// Update walks every dynamic entry, predicting its next bounds from its
// owning body's linear velocity and re-padding the tree entry only when
// the prediction would escape the currently stored padded bounds, per
// spec §4.3. logger receives a Debug report whenever a collider's mask
// has changed since the last Update: the dynamic tree's leaf mask is
// otherwise only refreshed alongside a bounds-triggered re-insertion, so
// a mask-only change would otherwise go stale in the tree until the
// collider next moves enough to escape its padded bounds.
func (bp *Broadphase) Update(dt Scalar, bodies *Store[Body], colliders *Store[Collider], logger Logger) {
	for h, entry := range bp.dynamicEntries {
		col, ok := colliders.Get(entry.collider)
		if !ok {
			continue
		}
		pose := IdentityPose()
		var vel Vec3
		if !col.IsStatic() {
			if b, okB := bodies.Get(col.Body); okB {
				pose = b.Pose
				vel = b.Vel.Linear
			}
		}
		current := col.Bounds(pose)

		if entry.mask != col.Mask {
			logger.Debugf("broadphase: resyncing stale BVH mask for collider %v (%v -> %v)", entry.collider, entry.mask, col.Mask)
			bp.dynamic.UpdateMask(h, col.Mask)
		}
		entry.mask = col.Mask

		displacement := vel.Mul(bp.PadFactor * dt)
		predicted := NewBoundsCenterExtents(current.Center.Add(displacement), current.Extents)
		predictedMerged := current.Merge(predicted)

		if entry.paddedBounds.ContainsInclusive(predictedMerged) {
			continue
		}
		margin := current.Extents.Mul(0.5)
		newBounds := NewBoundsCenterExtents(predictedMerged.Center, predictedMerged.Extents.Add(margin))
		entry.paddedBounds = newBounds
		bp.dynamic.Update(h, newBounds, col.Mask)
	}
}

// Raycast fans a ray query out across both trees, invoking the per-collider
// raycast on every leaf the tree traversal doesn't prune.
func (bp *Broadphase) Raycast(r Ray, maxDistance Scalar, mask CollisionMask,
	colliders *Store[Collider], bodies *Store[Body], callback func(Ref[Collider], RaycastHit)) {

	visit := func(entries map[BVHHandle]*broadphaseEntry, tree *BVH) {
		tree.Raycast(r, maxDistance, mask, func(h BVHHandle) {
			entry, ok := entries[h]
			if !ok {
				return
			}
			col, okC := colliders.Get(entry.collider)
			if !okC {
				return
			}
			pose := IdentityPose()
			if !col.IsStatic() {
				if b, okB := bodies.Get(col.Body); okB {
					pose = b.Pose
				}
			}
			if hit, okHit := col.Raycast(r, maxDistance, pose); okHit {
				callback(entry.collider, hit)
			}
		})
	}
	visit(bp.dynamicEntries, bp.dynamic)
	visit(bp.staticEntries, bp.static)
}

func (bp *Broadphase) sameBody(a, b Ref[Collider], colliders *Store[Collider]) bool {
	colA, okA := colliders.Get(a)
	colB, okB := colliders.Get(b)
	if !okA || !okB {
		return false
	}
	if colA.IsStatic() || colB.IsStatic() {
		return false
	}
	return colA.Body == colB.Body
}

// ForEachOverlapPair fans out across both trees: dynamic-dynamic pairs via
// the dynamic tree's own symmetric walker, dynamic-static pairs by testing
// each dynamic entry against the static tree. Pairs belonging to the same
// body are filtered out, per spec §4.3.
func (bp *Broadphase) ForEachOverlapPair(colliders *Store[Collider], callback func(a, b Ref[Collider])) {
	bp.dynamic.ForEachOverlapPair(false, func(ha, hb BVHHandle) {
		ea, okA := bp.dynamicEntries[ha]
		eb, okB := bp.dynamicEntries[hb]
		if !okA || !okB {
			return
		}
		if bp.sameBody(ea.collider, eb.collider, colliders) {
			return
		}
		callback(ea.collider, eb.collider)
	})

	for _, entry := range bp.dynamicEntries {
		bp.static.Intersects(entry.paddedBounds, entry.mask, func(sh BVHHandle) {
			se, ok := bp.staticEntries[sh]
			if !ok {
				return
			}
			if bp.sameBody(entry.collider, se.collider, colliders) {
				return
			}
			callback(entry.collider, se.collider)
		}, false)
	}
}
