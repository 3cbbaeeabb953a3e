package lamina

import (
	"errors"
	"fmt"
	"math"

	"Layup/internal/calc/matrix"
)

// ErrInvalidMaterial marks non-physical ply constants or geometry.
var ErrInvalidMaterial = errors.New("lamina: invalid material")

// Material is the set of in-plane engineering constants of a unidirectional
// ply. Moduli share one stress unit (GPa throughout this service).
type Material struct {
	E1   float64 `json:"e1"`
	E2   float64 `json:"e2"`
	G12  float64 `json:"g12"`
	Nu12 float64 `json:"nu12"`
}

// Nu21 is the minor Poisson ratio ν12·E2/E1.
func (m Material) Nu21() float64 {
	return m.Nu12 * m.E2 / m.E1
}

func (m Material) Validate() error {
	for _, v := range []float64{m.E1, m.E2, m.G12, m.Nu12} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite constant", ErrInvalidMaterial)
		}
	}
	if m.E1 <= 0 || m.E2 <= 0 || m.G12 <= 0 {
		return fmt.Errorf("%w: moduli must be positive (E1=%g E2=%g G12=%g)", ErrInvalidMaterial, m.E1, m.E2, m.G12)
	}
	if m.Nu12 <= 0 || m.Nu12 >= 1 {
		return fmt.Errorf("%w: nu12=%g outside (0,1)", ErrInvalidMaterial, m.Nu12)
	}
	if 1-m.Nu12*m.Nu21() <= 0 {
		return fmt.Errorf("%w: nu12*nu21=%g must be below 1", ErrInvalidMaterial, m.Nu12*m.Nu21())
	}
	return nil
}

// Lamina is a single ply at a fiber angle. Q and Q̄ are fixed at
// construction.
type Lamina struct {
	material  Material
	thickness float64
	theta     float64
	q         matrix.Mat3
	qbar      matrix.Mat3
}

// New builds a ply of the given thickness with fibers at theta degrees from
// the laminate x axis.
func New(m Material, thickness, theta float64) (*Lamina, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !(thickness > 0) || math.IsInf(thickness, 0) {
		return nil, fmt.Errorf("%w: thickness %g must be positive", ErrInvalidMaterial, thickness)
	}
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return nil, fmt.Errorf("%w: angle %g", ErrInvalidMaterial, theta)
	}
	l := &Lamina{material: m, thickness: thickness, theta: theta}
	l.q = reducedStiffness(m)
	l.qbar = transform(l.q, theta)
	return l, nil
}

func (l *Lamina) Material() Material { return l.material }
func (l *Lamina) Thickness() float64 { return l.thickness }
func (l *Lamina) Theta() float64     { return l.theta }

// Q is the plane-stress reduced stiffness in material axes.
func (l *Lamina) Q() matrix.Mat3 { return l.q }

// QBar is Q rotated into laminate axes.
func (l *Lamina) QBar() matrix.Mat3 { return l.qbar }

// Compliance is S = Q⁻¹ in material axes; it does not depend on the angle.
func (l *Lamina) Compliance() matrix.Mat3 {
	m := l.material
	return matrix.Mat3{
		{1 / m.E1, -m.Nu12 / m.E1, 0},
		{-m.Nu12 / m.E1, 1 / m.E2, 0},
		{0, 0, 1 / m.G12},
	}
}

// StressToMaterial rotates a laminate-axes stress (σx, σy, τxy) into the
// ply's material axes (σ1, σ2, τ12).
func (l *Lamina) StressToMaterial(s matrix.Vec3) matrix.Vec3 {
	c, sn := cosSin(l.theta)
	t := matrix.Mat3{
		{c * c, sn * sn, 2 * sn * c},
		{sn * sn, c * c, -2 * sn * c},
		{-sn * c, sn * c, c*c - sn*sn},
	}
	return t.MulVec(s)
}

func reducedStiffness(m Material) matrix.Mat3 {
	den := 1 - m.Nu12*m.Nu21()
	q11 := m.E1 / den
	q22 := m.E2 / den
	q12 := m.Nu12 * m.E2 / den
	return matrix.Mat3{
		{q11, q12, 0},
		{q12, q22, 0},
		{0, 0, m.G12},
	}
}

func transform(q matrix.Mat3, theta float64) matrix.Mat3 {
	c, s := cosSin(theta)
	c2, s2 := c*c, s*s
	c3, s3 := c2*c, s2*s
	c4, s4 := c2*c2, s2*s2

	q11, q22, q12, q66 := q[0][0], q[1][1], q[0][1], q[2][2]

	b11 := q11*c4 + 2*(q12+2*q66)*s2*c2 + q22*s4
	b22 := q11*s4 + 2*(q12+2*q66)*s2*c2 + q22*c4
	b12 := (q11+q22-4*q66)*s2*c2 + q12*(s4+c4)
	b66 := (q11+q22-2*q12-2*q66)*s2*c2 + q66*(s4+c4)
	b16 := (q11-q12-2*q66)*s*c3 + (q12-q22+2*q66)*s3*c
	b26 := (q11-q12-2*q66)*s3*c + (q12-q22+2*q66)*s*c3

	return matrix.Mat3{
		{b11, b12, b16},
		{b12, b22, b26},
		{b16, b26, b66},
	}
}

// cosSin snaps exact multiples of 90° so that 0° and 90° plies carry no
// spurious shear coupling.
func cosSin(deg float64) (float64, float64) {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	switch r {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	return math.Cos(deg * math.Pi / 180), math.Sin(deg * math.Pi / 180)
}
