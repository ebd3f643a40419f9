package physics

import "math"

// MassProperties is an accumulated rigid-body mass distribution: total
// mass, center of mass (in the accumulation frame), and inertia tensor
// about that center of mass (also in the accumulation frame).
type MassProperties struct {
	Mass    Scalar
	COM     Vec3
	Inertia Mat3
}

// massComputer accumulates MassProperties from a sequence of colliders,
// each contributing its shape's local inertia tensor translated and
// rotated into the body frame via the parallel-axis theorem, matching
// spec §4.5 updateMass().
type massComputer struct {
	acc MassProperties
}

func (mc *massComputer) add(c *Collider) {
	density := c.Density
	if density <= 0 {
		density = 1
	}
	mass := c.Shape.Volume() * density
	if mass <= 0 {
		return
	}
	localInertia := shapeInertiaTensor(c.Shape, mass)

	// Rotate the shape's local inertia tensor into the body frame via its
	// local pose's rotation: I' = R I R^T.
	R := mat3FromQuat(c.LocalPose.Rotation)
	if !c.LocalPose.HasRotation {
		R = identMat3()
	}
	worldish := R.Mul3(localInertia).Mul3(R.Transpose())

	// The shape's centroid is its local pose position (none of the four
	// primitive shapes have an off-center centroid); combineMass shifts
	// the inertia about it to the combined center of mass.
	offset := c.LocalPose.Position

	combined := combineMass(mc.acc, MassProperties{Mass: mass, COM: offset, Inertia: worldish})
	mc.acc = combined
}

// combineMass merges two mass distributions expressed in the same frame,
// re-centering the combined inertia tensor on the combined center of mass.
func combineMass(a, b MassProperties) MassProperties {
	if a.Mass == 0 {
		return b
	}
	if b.Mass == 0 {
		return a
	}
	totalMass := a.Mass + b.Mass
	com := a.COM.Mul(a.Mass).Add(b.COM.Mul(b.Mass)).Mul(1 / totalMass)

	ia := parallelAxisShift(a.Inertia, a.Mass, com.Sub(a.COM).Mul(-1))
	ib := parallelAxisShift(b.Inertia, b.Mass, com.Sub(b.COM).Mul(-1))

	return MassProperties{Mass: totalMass, COM: com, Inertia: addMat3(ia, ib)}
}

// parallelAxisShift shifts an inertia tensor (about a body's own COM) by
// offset to give the inertia tensor about a parallel axis located at
// -offset from that COM: I_shifted = I + m*(|r|^2 * Ident - r (x) r).
func parallelAxisShift(inertia Mat3, mass Scalar, offset Vec3) Mat3 {
	r := offset
	r2 := r.Dot(r)
	outer := Mat3{
		r.X() * r.X(), r.X() * r.Y(), r.X() * r.Z(),
		r.Y() * r.X(), r.Y() * r.Y(), r.Y() * r.Z(),
		r.Z() * r.X(), r.Z() * r.Y(), r.Z() * r.Z(),
	}
	shift := subMat3(diagMat3(r2, r2, r2), outer)
	return addMat3(inertia, scaleMat3(shift, mass))
}

func shapeInertiaTensor(s Shape, mass Scalar) Mat3 {
	switch s.Kind {
	case ShapeBox:
		d := s.HalfExtents.Mul(2)
		w, h, l := d.X(), d.Y(), d.Z()
		ix := (mass / 12) * (h*h + l*l)
		iy := (mass / 12) * (w*w + l*l)
		iz := (mass / 12) * (w*w + h*h)
		return diagMat3(ix, iy, iz)
	case ShapeSphere:
		i := (2.0 / 5.0) * mass * s.Radius * s.Radius
		return diagMat3(i, i, i)
	case ShapeCapsule:
		return capsuleInertia(s, mass)
	case ShapeCylinder:
		r2 := s.Radius * s.Radius
		ix := 0.5 * mass * r2
		iy := (mass / 12) * (3*r2 + s.Length*s.Length)
		return diagMat3(ix, iy, iy)
	default:
		return diagMat3(0, 0, 0)
	}
}

// capsuleInertia splits the capsule into a cylindrical core plus two
// hemispherical caps, combining their inertias about the capsule's own
// center via the parallel axis theorem (capsule axis is local +X).
func capsuleInertia(s Shape, totalMass Scalar) Mat3 {
	r := s.Radius
	cylLen := s.Length
	cylVol := piConst * r * r * cylLen
	capVol := (4.0 / 3.0) * piConst * r * r * r // both hemispheres combined
	totalVol := cylVol + capVol
	if totalVol <= 0 {
		return diagMat3(0, 0, 0)
	}
	cylMass := totalMass * cylVol / totalVol
	capMass := totalMass * capVol / totalVol // both caps combined

	ixCyl := 0.5 * cylMass * r * r
	iyCyl := (cylMass / 12) * (3*r*r + cylLen*cylLen)

	// Single sphere of mass capMass split across two hemispheres at +-d.
	halfCapMass := capMass / 2
	d := cylLen/2 + (3.0/8.0)*r // hemisphere COM offset from flat face
	ixCap := (2.0 / 5.0) * capMass * r * r
	// Hemisphere about its own COM (perpendicular axis), doubled and then
	// parallel-axis shifted out to +-d along X.
	iyCapOwn := (83.0 / 320.0) * capMass * r * r
	iyCap := iyCapOwn + halfCapMass*d*d*2 // shift both hemispheres

	return diagMat3(ixCyl+ixCap, iyCyl+iyCap, iyCyl+iyCap)
}

// diagonalize finds the principal axes of a symmetric 3x3 inertia tensor
// using classical Jacobi rotation (spec §4.5: up to 24 rotations, each
// eliminating the current largest off-diagonal entry). Returns the
// rotation whose columns are the principal axes (massPose.Rotation) and
// the diagonal (principal) moments. If the tensor is not positive
// definite (degenerate collider set) diagonalize reports failure so the
// caller can fall back to infinite mass, per spec §4.5 / §7. logger
// receives a Debug report on that failure path.
func diagonalize(m Mat3, logger Logger) (rotation Mat3, diag Vec3, ok bool) {
	a := m
	v := identMat3()

	for iter := 0; iter < 24; iter++ {
		// Find largest off-diagonal magnitude.
		p, q := 0, 1
		best := absf(a.At(0, 1))
		if absf(a.At(0, 2)) > best {
			p, q, best = 0, 2, absf(a.At(0, 2))
		}
		if absf(a.At(1, 2)) > best {
			p, q, best = 1, 2, absf(a.At(1, 2))
		}
		if best < 1e-10 {
			break
		}

		app, aqq, apq := a.At(p, p), a.At(q, q), a.At(p, q)
		theta := (aqq - app) / (2 * apq)
		t := signf(theta) / (absf(theta) + math.Sqrt(1+theta*theta))
		if theta == 0 {
			t = 1
		}
		c := 1 / math.Sqrt(1+t*t)
		s := t * c

		a = jacobiRotate(a, p, q, c, s)
		v = jacobiRotateColumns(v, p, q, c, s)
	}

	d := Vec3{a.At(0, 0), a.At(1, 1), a.At(2, 2)}
	if d.X() <= 0 || d.Y() <= 0 || d.Z() <= 0 {
		logger.Debugf("mass: inertia tensor failed to diagonalize to positive-definite moments (%v)", d)
		return identMat3(), Vec3{}, false
	}
	return v, d, true
}

func jacobiRotate(a Mat3, p, q int, c, s Scalar) Mat3 {
	app, aqq, apq := a.At(p, p), a.At(q, q), a.At(p, q)
	a.Set(p, p, c*c*app-2*s*c*apq+s*s*aqq)
	a.Set(q, q, s*s*app+2*s*c*apq+c*c*aqq)
	a.Set(p, q, 0)
	a.Set(q, p, 0)

	r := 3 - p - q // the remaining index
	arp, arq := a.At(r, p), a.At(r, q)
	newArp := c*arp - s*arq
	newArq := s*arp + c*arq
	a.Set(r, p, newArp)
	a.Set(p, r, newArp)
	a.Set(r, q, newArq)
	a.Set(q, r, newArq)
	return a
}

func jacobiRotateColumns(v Mat3, p, q int, c, s Scalar) Mat3 {
	for r := 0; r < 3; r++ {
		vrp, vrq := v.At(r, p), v.At(r, q)
		v.Set(r, p, c*vrp-s*vrq)
		v.Set(r, q, s*vrp+c*vrq)
	}
	return v
}

func addMat3(a, b Mat3) Mat3 {
	var out Mat3
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func subMat3(a, b Mat3) Mat3 {
	var out Mat3
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func scaleMat3(a Mat3, s Scalar) Mat3 {
	var out Mat3
	for i := range a {
		out[i] = a[i] * s
	}
	return out
}
