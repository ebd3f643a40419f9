package physics

// CollisionMask is a 32-bit category/filter mask; two colliders can only
// generate an overlap when maskA & maskB != 0 (spec §6).
type CollisionMask uint32

// AllCollisionGroups is the default mask: collides with everything.
const AllCollisionGroups CollisionMask = 0xFFFFFFFF

// Collider attaches a Shape to a Body (or to nothing, making it static),
// with a local pose relative to the owning body, a collision mask, and
// the per-pair material properties used by the contact constraint.
//
// Per spec §3: "if body is null the collider is static and will never
// move; otherwise it inherits the body's world pose." Dispatch (bounds,
// raycast, support, volume, mass) is not carried as five function
// pointers the way the reference implementation does it — Go has no
// need for a vtable here, since Shape already carries its own kind and
// methods switch on it (spec §9 design note).
type Collider struct {
	Body ColliderBodyRef // zero Ref => static

	Shape     Shape
	LocalPose Pose

	Mask CollisionMask

	Density           Scalar
	StaticFriction    Scalar
	DynamicFriction   Scalar
	Restitution       Scalar
}

// ColliderBodyRef is the Ref type colliders use to point back at their
// owning body; a type alias of Ref[Body], so the two are interchangeable.
type ColliderBodyRef = Ref[Body]

// NewCollider returns a collider with the given shape and reasonable
// material defaults (density 1, matching original_source's
// Collider.h fallback when constructed with density <= 0).
func NewCollider(shape Shape) *Collider {
	return &Collider{
		Shape:           shape,
		LocalPose:       IdentityPose(),
		Mask:            AllCollisionGroups,
		Density:         1,
		StaticFriction:  0.6,
		DynamicFriction: 0.4,
		Restitution:     0,
	}
}

// IsStatic reports whether this collider has no owning body.
func (c *Collider) IsStatic() bool {
	return c.Body.IsZero()
}

// WorldPose returns the collider's world pose given its owning body's
// world pose (or identity, for a static collider with no body).
func (c *Collider) WorldPose(bodyPose Pose) Pose {
	return bodyPose.Compose(c.LocalPose)
}

// Bounds returns the collider's AABB in world space, given the body pose.
func (c *Collider) Bounds(bodyPose Pose) Bounds {
	wp := c.WorldPose(bodyPose)
	local := c.Shape.Bounds()
	// Conservative: rotate all eight corners of the local AABB and
	// re-enclose, rather than assuming axis alignment survives rotation.
	min, max := local.Min(), local.Max()
	corners := [8]Vec3{
		{min.X(), min.Y(), min.Z()}, {min.X(), min.Y(), max.Z()},
		{min.X(), max.Y(), min.Z()}, {min.X(), max.Y(), max.Z()},
		{max.X(), min.Y(), min.Z()}, {max.X(), min.Y(), max.Z()},
		{max.X(), max.Y(), min.Z()}, {max.X(), max.Y(), max.Z()},
	}
	b := EmptyBounds()
	for _, c := range corners {
		b = b.MergePoint(wp.Transform(c))
	}
	return b
}

// Raycast intersects ray r (world space) against the collider given the
// owning body's world pose.
func (c *Collider) Raycast(r Ray, maxDistance Scalar, bodyPose Pose) (RaycastHit, bool) {
	wp := c.WorldPose(bodyPose)
	localRay := Ray{
		Origin:    wp.InverseTransform(r.Origin),
		Direction: wp.InverseRotate(r.Direction),
	}
	hit, ok := c.Shape.raycastLocal(localRay, maxDistance)
	if !ok {
		return RaycastHit{}, false
	}
	hit.Point = wp.Transform(hit.Point)
	hit.Normal = wp.Rotate(hit.Normal)
	return hit, true
}

// Support returns the collider's support point in world space along dir,
// given the owning body's world pose.
func (c *Collider) Support(dir Vec3, bodyPose Pose) Vec3 {
	wp := c.WorldPose(bodyPose)
	localDir := wp.InverseRotate(dir)
	return wp.Transform(c.Shape.Support(localDir))
}

// Volume returns the collider's shape volume.
func (c *Collider) Volume() Scalar {
	return c.Shape.Volume()
}
