package physics

// MotorConstraint drives relative angular motion between two bodies by
// adding an equal-and-opposite torque every substep (spec §4.8); it has
// no position or velocity solve of its own.
type MotorConstraint struct {
	LocalAxis Vec3 // rotation axis, in body A's local frame
	Torque    Scalar
}

func (m *MotorConstraint) ApplyForces(c *Constraint, w *World, h Scalar) {
	bodyA, bodyB := c.bodies(w)

	var worldAxis Vec3
	if bodyA != nil {
		worldAxis = bodyA.Pose.Rotate(m.LocalAxis)
	} else {
		worldAxis = m.LocalAxis
	}
	axis := safeNormalize(worldAxis, Vec3{1, 0, 0})
	torque := axis.Mul(m.Torque)

	if bodyA != nil {
		bodyA.AddTorque(torque)
	}
	if bodyB != nil {
		bodyB.AddTorque(torque.Mul(-1))
	}
}

func (m *MotorConstraint) SolvePositions(c *Constraint, w *World, hInv2 Scalar) {}

func (m *MotorConstraint) SolveVelocities(c *Constraint, w *World, h, hInv2 Scalar) {}
