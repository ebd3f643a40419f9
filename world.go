package physics

import "sort"

// pairKeyT (built by makePairKey) canonicalizes an unordered pair of store ids so (a, b) and (b, a)
// hash identically; used by the world's ignore-pair sets.
type pairKeyT struct{ lo, hi uint64 }

func makePairKey(a, b uint64) pairKeyT {
	if a <= b {
		return pairKeyT{a, b}
	}
	return pairKeyT{b, a}
}

type pairSet map[pairKeyT]struct{}

func (s pairSet) add(a, b uint64)      { s[makePairKey(a, b)] = struct{}{} }
func (s pairSet) remove(a, b uint64)   { delete(s, makePairKey(a, b)) }
func (s pairSet) contains(a, b uint64) bool {
	_, ok := s[makePairKey(a, b)]
	return ok
}

// World owns every Body, Collider and Constraint store plus the broadphase,
// and drives the XPBD substep loop, per spec §4.9.
type World struct {
	Bodies      *Store[Body]
	Colliders   *Store[Collider]
	Constraints *Store[Constraint]
	Broadphase  *Broadphase

	Gravity Vec3
	Logger  Logger

	// contactPool is a monotonically-growing pool of transient Constraints
	// whose Behavior is a *ContactConstraint, rebound every step to
	// whatever pairs the broadphase currently reports (spec §4.9 step 3).
	contactPool  []*Constraint
	liveContacts int

	bodyPairIgnore     pairSet
	colliderPairIgnore pairSet
}

// NewWorld returns an empty world with the given constant gravity.
func NewWorld(gravity Vec3) *World {
	return &World{
		Bodies:             NewStore[Body](),
		Colliders:          NewStore[Collider](),
		Constraints:        NewStore[Constraint](),
		Broadphase:         NewBroadphase(),
		Gravity:            gravity,
		Logger:             NewNopLogger(),
		bodyPairIgnore:     pairSet{},
		colliderPairIgnore: pairSet{},
	}
}

// AddBody inserts a new rigid body at the given pose.
func (w *World) AddBody(pose Pose) Ref[Body] {
	return w.Bodies.Add(*NewBody(pose))
}

// AddParticleBody inserts a new particle body at the given position.
func (w *World) AddParticleBody(pos Vec3) Ref[Body] {
	return w.Bodies.Add(*NewParticleBody(pos))
}

// RemoveBody detaches and removes every collider owned by the body, then
// removes the body itself.
func (w *World) RemoveBody(ref Ref[Body]) {
	b, ok := w.Bodies.Get(ref)
	if ok {
		owned := append([]Ref[Collider]{}, b.Colliders...)
		for _, cr := range owned {
			w.RemoveCollider(cr)
		}
	}
	w.Bodies.Erase(ref)
}

// AddCollider attaches a new collider to bodyRef, inserts it into the
// dynamic broadphase tree, and refreshes the owning body's mass properties.
func (w *World) AddCollider(bodyRef Ref[Body], shape Shape, localPose Pose) Ref[Collider] {
	c := NewCollider(shape)
	c.Body = bodyRef
	c.LocalPose = localPose

	ref := w.Colliders.Add(*c)

	pose := IdentityPose()
	if b, ok := w.Bodies.Get(bodyRef); ok {
		b.Colliders = append(b.Colliders, ref)
		pose = b.Pose
		b.UpdateMass(w.Colliders, w.Logger)
	}
	w.Broadphase.Add(ref, c.Bounds(pose), c.Mask)
	return ref
}

// AddStaticCollider inserts a collider with no owning body directly into
// the static broadphase tree.
func (w *World) AddStaticCollider(shape Shape, worldPose Pose) Ref[Collider] {
	c := NewCollider(shape)
	c.LocalPose = worldPose

	ref := w.Colliders.Add(*c)
	w.Broadphase.AddStatic(ref, c.Bounds(IdentityPose()), c.Mask)
	return ref
}

// RemoveCollider removes a collider from its tree and, if dynamic, from its
// owning body's collider list, refreshing that body's mass properties.
func (w *World) RemoveCollider(ref Ref[Collider]) {
	col, ok := w.Colliders.Get(ref)
	if !ok {
		return
	}
	if col.IsStatic() {
		w.Broadphase.RemoveStatic(ref)
	} else {
		w.Broadphase.Remove(ref)
		if b, okB := w.Bodies.Get(col.Body); okB {
			kept := b.Colliders[:0]
			for _, cr := range b.Colliders {
				if cr != ref {
					kept = append(kept, cr)
				}
			}
			b.Colliders = kept
			b.UpdateMass(w.Colliders, w.Logger)
		}
	}
	w.Colliders.Erase(ref)
}

// AddConstraint inserts a joint, motor, or other persistent constraint.
func (w *World) AddConstraint(c Constraint) Ref[Constraint] {
	return w.Constraints.Add(c)
}

// RemoveConstraint removes a persistent constraint.
func (w *World) RemoveConstraint(ref Ref[Constraint]) bool {
	return w.Constraints.Erase(ref)
}

// IgnoreBodyPair suppresses contact generation between two bodies.
func (w *World) IgnoreBodyPair(a, b Ref[Body]) { w.bodyPairIgnore.add(a.id, b.id) }

// StopIgnoringBodyPair re-enables contact generation between two bodies.
func (w *World) StopIgnoringBodyPair(a, b Ref[Body]) { w.bodyPairIgnore.remove(a.id, b.id) }

// IgnoreColliderPair suppresses contact generation between two colliders.
func (w *World) IgnoreColliderPair(a, b Ref[Collider]) { w.colliderPairIgnore.add(a.id, b.id) }

// StopIgnoringColliderPair re-enables contact generation between two colliders.
func (w *World) StopIgnoringColliderPair(a, b Ref[Collider]) { w.colliderPairIgnore.remove(a.id, b.id) }

func bodyOrNil(w *World, ref Ref[Body]) *Body {
	if ref.IsZero() {
		return nil
	}
	b, _ := w.Bodies.Get(ref)
	return b
}

// buildContacts walks the broadphase's overlap pairs and (re)binds a pooled
// ContactConstraint to every pair that survives the ignore filters, per
// spec §4.9 step 3. jointIgnore collects every body pair bridged by a joint
// with IgnoreCollisions set.
func (w *World) buildContacts(jointIgnore pairSet) {
	w.liveContacts = 0
	w.Broadphase.ForEachOverlapPair(w.Colliders, func(a, b Ref[Collider]) {
		if w.colliderPairIgnore.contains(a.id, b.id) {
			return
		}
		colA, okA := w.Colliders.Get(a)
		colB, okB := w.Colliders.Get(b)
		if !okA || !okB {
			return
		}
		var bodyA, bodyB Ref[Body]
		if !colA.IsStatic() {
			bodyA = colA.Body
		}
		if !colB.IsStatic() {
			bodyB = colB.Body
		}
		if !bodyA.IsZero() && !bodyB.IsZero() {
			if w.bodyPairIgnore.contains(bodyA.id, bodyB.id) {
				return
			}
			if jointIgnore.contains(bodyA.id, bodyB.id) {
				return
			}
		}

		idx := w.liveContacts
		if idx >= len(w.contactPool) {
			w.contactPool = append(w.contactPool, &Constraint{Behavior: &ContactConstraint{}})
		}
		cw := w.contactPool[idx]
		cw.BodyA = bodyA
		cw.BodyB = bodyB
		cw.IgnoreCollisions = false
		cw.Behavior.(*ContactConstraint).BindContact(a, b, colA, colB)
		w.liveContacts++
	})
}

func (w *World) collectJointIgnores() pairSet {
	ignore := pairSet{}
	w.Constraints.ForEach(func(_ Ref[Constraint], c *Constraint) {
		if !c.IgnoreCollisions {
			return
		}
		if _, ok := c.Behavior.(*JointConstraint); !ok {
			return
		}
		if c.BodyA.IsZero() || c.BodyB.IsZero() {
			return
		}
		ignore.add(c.BodyA.id, c.BodyB.id)
	})
	return ignore
}

// Simulate advances the world by dt, split into the given number of XPBD
// substeps, per spec §4.9 step 4. substeps is clamped to at least 1.
func (w *World) Simulate(dt Scalar, substeps int) {
	if substeps < 1 {
		substeps = 1
	}
	h := dt / Scalar(substeps)
	hInv := 1 / h
	hInv2 := hInv * hInv

	w.Broadphase.Update(dt, w.Bodies, w.Colliders, w.Logger)
	w.buildContacts(w.collectJointIgnores())

	for step := 0; step < substeps; step++ {
		w.Constraints.ForEach(func(_ Ref[Constraint], c *Constraint) {
			c.Behavior.ApplyForces(c, w, h)
		})

		for i := 0; i < w.Bodies.Len(); i++ {
			b := w.Bodies.At(i)
			b.Integrate(h, w.Gravity)
			b.ClearForces()
		}

		w.Constraints.ForEach(func(_ Ref[Constraint], c *Constraint) {
			c.Behavior.SolvePositions(c, w, hInv2)
		})
		for i := 0; i < w.liveContacts; i++ {
			cw := w.contactPool[i]
			cw.Behavior.SolvePositions(cw, w, hInv2)
		}

		for i := 0; i < w.Bodies.Len(); i++ {
			w.Bodies.At(i).Differentiate(hInv)
		}

		for i := 0; i < w.liveContacts; i++ {
			cw := w.contactPool[i]
			cw.Behavior.SolveVelocities(cw, w, h, hInv2)
		}
		w.Constraints.ForEach(func(_ Ref[Constraint], c *Constraint) {
			c.Behavior.SolveVelocities(c, w, h, hInv2)
		})
	}
}

// raycastResult pairs a single Raycast hit with the collider it came from,
// so the unordered broadphase callback stream can be sorted afterward.
type raycastResult struct {
	collider Ref[Collider]
	hit      RaycastHit
}

// Raycast casts a ray against both broadphase trees and reports every hit
// within maxDistance to callback in ascending distance order. The
// broadphase's own tree walks visit leaves in no particular order, so hits
// are buffered and sorted with sort.Slice rather than streamed as found.
func (w *World) Raycast(r Ray, maxDistance Scalar, mask CollisionMask, callback func(Ref[Collider], RaycastHit)) {
	var results []raycastResult
	w.Broadphase.Raycast(r, maxDistance, mask, w.Colliders, w.Bodies, func(c Ref[Collider], hit RaycastHit) {
		results = append(results, raycastResult{collider: c, hit: hit})
	})

	sort.Slice(results, func(i, j int) bool {
		return results[i].hit.Distance < results[j].hit.Distance
	})
	for _, res := range results {
		callback(res.collider, res.hit)
	}
}

// ForEachCollision reports every currently-touching collider pair and its
// contact point. When called between Simulate steps this reuses the pooled
// contacts computed during the last step; otherwise it re-derives them from
// the broadphase and narrowphase without mutating any state.
func (w *World) ForEachCollision(callback func(colliderA, colliderB Ref[Collider], cp ContactPoint)) {
	if w.liveContacts > 0 {
		for i := 0; i < w.liveContacts; i++ {
			cc := w.contactPool[i].Behavior.(*ContactConstraint)
			if cc.colliding {
				callback(cc.ColliderA, cc.ColliderB, cc.contact)
			}
		}
		return
	}
	w.Broadphase.ForEachOverlapPair(w.Colliders, func(a, b Ref[Collider]) {
		colA, okA := w.Colliders.Get(a)
		colB, okB := w.Colliders.Get(b)
		if !okA || !okB {
			return
		}
		poseA := bodyPoseOrIdentity(bodyOrNil(w, colA.Body))
		poseB := bodyPoseOrIdentity(bodyOrNil(w, colB.Body))
		if cp, hit := collide(colA, colB, poseA, poseB, w.Logger); hit {
			callback(a, b, cp)
		}
	})
}
