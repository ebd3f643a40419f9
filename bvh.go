package physics

// bvhNull marks the absence of a node index (root's parent, a leaf's
// children, an empty tree's root).
const bvhNull = -1

// bvhNode is either a leaf (External set, no children) or an internal
// node (two children, no External payload), per spec §4.2.
type bvhNode struct {
	bounds Bounds
	mask   CollisionMask
	parent int

	left, right int // bvhNull on a leaf

	external BVHHandle
	isLeaf   bool

	inUse bool // slot recycling: false once freed back to the free list
	next  int  // free-list link when !inUse
}

// BVHHandle is the stable identifier a BVH hands back for a leaf; it
// indexes directly into the node array and is never reused while the
// leaf is live (freed slots are tracked on a free list instead).
type BVHHandle int

// BVH is a dynamic bounding volume hierarchy maintained via SAH-guided
// insertion and incremental tree rotation, per spec §4.2 (Catto's GDC
// 2019 dynamic-BVH note).
type BVH struct {
	nodes    []bvhNode
	root     int
	freeHead int
}

// NewBVH returns an empty tree.
func NewBVH() *BVH {
	return &BVH{root: bvhNull, freeHead: bvhNull}
}

func (t *BVH) allocNode() int {
	if t.freeHead != bvhNull {
		idx := t.freeHead
		t.freeHead = t.nodes[idx].next
		t.nodes[idx] = bvhNode{parent: bvhNull, left: bvhNull, right: bvhNull, inUse: true}
		return idx
	}
	t.nodes = append(t.nodes, bvhNode{parent: bvhNull, left: bvhNull, right: bvhNull, inUse: true})
	return len(t.nodes) - 1
}

func (t *BVH) freeNode(idx int) {
	t.nodes[idx] = bvhNode{inUse: false, next: t.freeHead, parent: bvhNull, left: bvhNull, right: bvhNull}
	t.freeHead = idx
}

// Add inserts a new leaf with the given bounds and mask, returning its
// stable handle.
func (t *BVH) Add(bounds Bounds, mask CollisionMask) BVHHandle {
	leaf := t.allocNode()
	t.nodes[leaf].bounds = bounds
	t.nodes[leaf].mask = mask
	t.nodes[leaf].isLeaf = true
	t.nodes[leaf].external = BVHHandle(leaf)

	if t.root == bvhNull {
		t.root = leaf
		return BVHHandle(leaf)
	}

	sibling := t.bestSibling(bounds)
	t.insertSibling(leaf, sibling)
	return BVHHandle(leaf)
}

// bestSibling descends from the root using the SAH insertion-cost
// heuristic (spec §4.2 step 1): the running inheritedCost is the sum of
// surface-area increases committed to along the path so far, and a node
// is only descended into if its subtree could still beat the best found.
func (t *BVH) bestSibling(b Bounds) int {
	type candidate struct {
		node         int
		inheritedCost Scalar
	}
	best := t.root
	bestCost := t.nodeCost(t.root, b, 0)

	stack := []candidate{{t.root, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[cur.node]

		directCost := NewBoundsMinMax(vecMin(n.bounds.Min(), b.Min()), vecMax(n.bounds.Max(), b.Max())).SurfaceArea()
		totalCost := directCost + cur.inheritedCost
		if totalCost < bestCost {
			bestCost = totalCost
			best = cur.node
		}

		if n.isLeaf {
			continue
		}
		childInherited := cur.inheritedCost + (directCost - n.bounds.SurfaceArea())
		// Lower bound on anything found deeper: even perfect containment
		// can't beat the inherited cost already committed.
		if childInherited >= bestCost {
			continue
		}
		stack = append(stack, candidate{n.left, childInherited})
		stack = append(stack, candidate{n.right, childInherited})
	}
	return best
}

func (t *BVH) nodeCost(node int, b Bounds, inherited Scalar) Scalar {
	n := &t.nodes[node]
	merged := NewBoundsMinMax(vecMin(n.bounds.Min(), b.Min()), vecMax(n.bounds.Max(), b.Max()))
	return merged.SurfaceArea() + inherited
}

// insertSibling splices a new internal parent above `sibling`, owning
// `leaf` and the former sibling, then refits upward with rotations.
func (t *BVH) insertSibling(leaf, sibling int) {
	oldParent := t.nodes[sibling].parent
	newParent := t.allocNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].left = sibling
	t.nodes[newParent].right = leaf
	t.nodes[newParent].isLeaf = false
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	if oldParent == bvhNull {
		t.root = newParent
	} else {
		if t.nodes[oldParent].left == sibling {
			t.nodes[oldParent].left = newParent
		} else {
			t.nodes[oldParent].right = newParent
		}
	}

	t.refitFrom(newParent)
}

func (t *BVH) refit(node int) {
	n := &t.nodes[node]
	l, r := &t.nodes[n.left], &t.nodes[n.right]
	n.bounds = l.bounds.Merge(r.bounds)
	n.mask = l.mask | r.mask
}

// refitFrom walks from node up to the root, recomputing bounds/mask and
// attempting a rotation at every level (spec §4.2 step 3).
func (t *BVH) refitFrom(node int) {
	for node != bvhNull {
		if !t.nodes[node].isLeaf {
			t.refit(node)
			t.tryRotate(node)
		}
		node = t.nodes[node].parent
	}
}

// tryRotate implements a grandchild swap after Catto's note: for each
// child of `node` and each child of node's sibling (the "aunt"), check
// whether swapping the two would shrink node's surface area, and perform
// the first such swap.
func (t *BVH) tryRotate(node int) {
	parent := t.nodes[node].parent
	if parent == bvhNull {
		return
	}
	var aunt int
	if t.nodes[parent].left == node {
		aunt = t.nodes[parent].right
	} else {
		aunt = t.nodes[parent].left
	}
	if t.nodes[aunt].isLeaf {
		return
	}

	n := &t.nodes[node]
	if n.isLeaf {
		return
	}
	currentSA := n.bounds.SurfaceArea()

	for _, childSlot := range []*int{&n.left, &n.right} {
		child := *childSlot
		for _, auntSlot := range []*int{&t.nodes[aunt].left, &t.nodes[aunt].right} {
			auntChild := *auntSlot
			other := t.otherChild(node, child)
			candidateSA := t.nodes[other].bounds.Merge(t.nodes[auntChild].bounds).SurfaceArea()
			if candidateSA < currentSA {
				t.swapNodes(child, auntChild)
				return
			}
		}
	}
}

func (t *BVH) otherChild(node, child int) int {
	if t.nodes[node].left == child {
		return t.nodes[node].right
	}
	return t.nodes[node].left
}

func (t *BVH) swapNodes(a, b int) {
	pa, pb := t.nodes[a].parent, t.nodes[b].parent
	if t.nodes[pa].left == a {
		t.nodes[pa].left = b
	} else {
		t.nodes[pa].right = b
	}
	if t.nodes[pb].left == b {
		t.nodes[pb].left = a
	} else {
		t.nodes[pb].right = a
	}
	t.nodes[a].parent, t.nodes[b].parent = pb, pa
	t.refit(pa)
	t.refit(pb)
}

// Update replaces a leaf's bounds/mask. Implemented as detach (which
// refits the old ancestors) followed by re-insertion (which refits the
// new ones).
func (t *BVH) Update(h BVHHandle, bounds Bounds, mask CollisionMask) {
	idx := int(h)
	if !t.nodes[idx].inUse || !t.nodes[idx].isLeaf {
		return
	}
	t.detach(idx)
	t.nodes[idx].bounds = bounds
	t.nodes[idx].mask = mask
	if t.root == bvhNull {
		t.root = idx
		return
	}
	sibling := t.bestSibling(bounds)
	t.insertSibling(idx, sibling)
}

// UpdateMask ORs the new mask up through the leaf's ancestors without
// touching bounds, per spec §4.2.
func (t *BVH) UpdateMask(h BVHHandle, mask CollisionMask) {
	idx := int(h)
	if !t.nodes[idx].inUse {
		return
	}
	t.nodes[idx].mask = mask
	node := t.nodes[idx].parent
	for node != bvhNull {
		t.nodes[node].mask = t.nodes[t.nodes[node].left].mask | t.nodes[t.nodes[node].right].mask
		node = t.nodes[node].parent
	}
}

// detach removes the subtree at idx from the tree structure without
// freeing its node; the freed parent's former ancestors are refitted up
// to the root.
func (t *BVH) detach(idx int) {
	parent := t.nodes[idx].parent
	if parent == bvhNull {
		t.root = bvhNull
		return
	}
	grandparent := t.nodes[parent].parent
	var siblingNode int
	if t.nodes[parent].left == idx {
		siblingNode = t.nodes[parent].right
	} else {
		siblingNode = t.nodes[parent].left
	}

	if grandparent == bvhNull {
		t.root = siblingNode
		t.nodes[siblingNode].parent = bvhNull
	} else {
		if t.nodes[grandparent].left == parent {
			t.nodes[grandparent].left = siblingNode
		} else {
			t.nodes[grandparent].right = siblingNode
		}
		t.nodes[siblingNode].parent = grandparent
		t.refitFrom(grandparent)
	}
	t.freeNode(parent)
}

// Remove deletes a leaf entirely, reattaching its sibling to the
// grandparent and refitting upward, per spec §4.2.
func (t *BVH) Remove(h BVHHandle) {
	idx := int(h)
	if !t.nodes[idx].inUse || !t.nodes[idx].isLeaf {
		return
	}
	t.detach(idx)
	t.freeNode(idx)
}

// Raycast performs a DFS from the root, skipping nodes whose mask misses
// the query mask or whose bounds the ray misses within maxDistance,
// reporting every leaf hit via callback (spec §4.2).
func (t *BVH) Raycast(r Ray, maxDistance Scalar, mask CollisionMask, callback func(BVHHandle)) {
	if t.root == bvhNull {
		return
	}
	var visit func(node int)
	visit = func(node int) {
		n := &t.nodes[node]
		if n.mask&mask == 0 {
			return
		}
		if _, hit := n.bounds.IntersectRay(r, maxDistance); !hit {
			return
		}
		if n.isLeaf {
			callback(n.external)
			return
		}
		visit(n.left)
		visit(n.right)
	}
	visit(t.root)
}

// Intersects reports every leaf whose bounds intersect b and whose mask
// overlaps the query mask.
func (t *BVH) Intersects(b Bounds, mask CollisionMask, callback func(BVHHandle), exclusive bool) {
	if t.root == bvhNull {
		return
	}
	var visit func(node int)
	visit = func(node int) {
		n := &t.nodes[node]
		if n.mask&mask == 0 {
			return
		}
		intersects := n.bounds.IntersectsInclusive(b)
		if exclusive {
			intersects = n.bounds.IntersectsExclusive(b)
		}
		if !intersects {
			return
		}
		if n.isLeaf {
			callback(n.external)
			return
		}
		visit(n.left)
		visit(n.right)
	}
	visit(t.root)
}

// ForEachOverlapPair enumerates every pair of leaves whose bounds
// intersect and whose masks overlap, deduplicating symmetric pairs by
// only reporting (a, b) when a < b, and never reporting (L, L), per spec
// §4.2.
func (t *BVH) ForEachOverlapPair(exclusive bool, callback func(a, b BVHHandle)) {
	if t.root == bvhNull {
		return
	}
	var leaves []int
	var collect func(node int)
	collect = func(node int) {
		n := &t.nodes[node]
		if n.isLeaf {
			leaves = append(leaves, node)
			return
		}
		collect(n.left)
		collect(n.right)
	}
	collect(t.root)

	for _, li := range leaves {
		leaf := &t.nodes[li]
		t.Intersects(leaf.bounds, leaf.mask, func(other BVHHandle) {
			if int(other) <= li {
				return
			}
			callback(BVHHandle(li), other)
		}, exclusive)
	}
}

// Bounds returns a leaf's current bounds.
func (t *BVH) Bounds(h BVHHandle) Bounds {
	return t.nodes[int(h)].bounds
}
