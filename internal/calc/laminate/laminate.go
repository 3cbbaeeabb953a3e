// Package laminate implements Classical Laminated Plate Theory for a stack
// of plies sharing one material: A/B/D assembly, the load-to-deformation
// solve and ply stress recovery.
//
// A Laminate is immutable once built. All derived matrices are computed in
// New; changing the stacking means building a new Laminate. Instances share
// no state and may be used from any number of goroutines.
package laminate

import (
	"fmt"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/loads"
	"Layup/internal/calc/matrix"
)

type Laminate struct {
	material lamina.Material
	plies    []*lamina.Lamina
	angles   []float64
	z        []float64
	h        float64

	a, b, d matrix.Mat3
	abd     matrix.Mat6
	inv     matrix.Mat6
}

// New builds a laminate from one ply material, a stacking sequence and ply
// thickness(es). Errors wrap ErrInvalidMaterial, ErrMalformedSequence,
// ErrInvalidThickness or ErrSingularSystem.
func New(m lamina.Material, seq Stacking, t Thickness) (*Laminate, error) {
	if seq == nil {
		return nil, fmt.Errorf("%w: no stacking sequence", ErrMalformedSequence)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: no ply thickness", ErrInvalidThickness)
	}
	angles, err := seq.resolve()
	if err != nil {
		return nil, err
	}
	ts, err := t.perPly(len(angles))
	if err != nil {
		return nil, err
	}

	l := &Laminate{
		material: m,
		angles:   angles,
		plies:    make([]*lamina.Lamina, len(angles)),
	}
	for i, theta := range angles {
		p, err := lamina.New(m, ts[i], theta)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i, err)
		}
		l.plies[i] = p
		l.h += ts[i]
	}

	l.z = make([]float64, len(angles)+1)
	l.z[0] = -l.h / 2
	for i, tk := range ts {
		l.z[i+1] = l.z[i] + tk
	}

	l.a, l.b, l.d = integrate(l.plies, l.z)
	l.abd = matrix.Block(l.a, l.b, l.b, l.d)
	l.inv, err = l.abd.Inverse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularSystem, err)
	}
	return l, nil
}

// integrate evaluates the exact through-thickness integrals of the piecewise
// constant Q̄ over each ply.
func integrate(plies []*lamina.Lamina, z []float64) (a, b, d matrix.Mat3) {
	for i, p := range plies {
		z0, z1 := z[i], z[i+1]
		qb := p.QBar()
		a = a.Add(qb.Scale(z1 - z0))
		b = b.Add(qb.Scale((z1*z1 - z0*z0) / 2))
		d = d.Add(qb.Scale((z1*z1*z1 - z0*z0*z0) / 3))
	}
	return a, b, d
}

// A is the extensional stiffness.
func (l *Laminate) A() matrix.Mat3 { return l.a }

// B is the extension-bending coupling stiffness.
func (l *Laminate) B() matrix.Mat3 { return l.b }

// D is the bending stiffness.
func (l *Laminate) D() matrix.Mat3 { return l.d }

// ABD is [[A, B], [B, D]].
func (l *Laminate) ABD() matrix.Mat6 { return l.abd }

// Compliance is the inverse of ABD.
func (l *Laminate) Compliance() matrix.Mat6 { return l.inv }

func (l *Laminate) Material() lamina.Material { return l.material }
func (l *Laminate) NPlies() int               { return len(l.plies) }
func (l *Laminate) TotalThickness() float64   { return l.h }

// ZCoords returns the n+1 ply interface coordinates, mid-plane at zero.
func (l *Laminate) ZCoords() []float64 { return append([]float64(nil), l.z...) }

// Angles returns the resolved stacking sequence.
func (l *Laminate) Angles() []float64 { return append([]float64(nil), l.angles...) }

func (l *Laminate) Ply(i int) (*lamina.Lamina, error) {
	if i < 0 || i >= len(l.plies) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, len(l.plies))
	}
	return l.plies[i], nil
}

// Solve returns mid-plane strains (εx, εy, γxy) and curvatures (κx, κy, κxy)
// for resultants (Nx, Ny, Nxy, Mx, My, Mxy).
func (l *Laminate) Solve(load matrix.Vec6) (strains, curvatures matrix.Vec3) {
	return l.inv.MulVec(load).Split()
}

// SolveMap is Solve with named resultants; see loads.FromMap.
func (l *Laminate) SolveMap(named map[string]float64) (strains, curvatures matrix.Vec3, err error) {
	v, err := loads.FromMap(named)
	if err != nil {
		return matrix.Vec3{}, matrix.Vec3{}, err
	}
	strains, curvatures = l.Solve(v)
	return strains, curvatures, nil
}

// Resultants maps a deformation state back to loads: ABD·(ε, κ).
func (l *Laminate) Resultants(strains, curvatures matrix.Vec3) matrix.Vec6 {
	return l.abd.MulVec(matrix.Concat(strains, curvatures))
}

// IsSymmetric reports whether the angle sequence reads the same both ways.
func (l *Laminate) IsSymmetric() bool {
	n := len(l.angles)
	for i := 0; i < n/2; i++ {
		if l.angles[i] != l.angles[n-1-i] {
			return false
		}
	}
	return true
}

// IsBalanced reports whether every off-axis angle +a has as many plies as
// -a. 0° and 90° plies are skipped. Angles compare exactly.
func (l *Laminate) IsBalanced() bool {
	count := make(map[float64]int, len(l.angles))
	for _, a := range l.angles {
		count[a]++
	}
	for a, n := range count {
		if a == 0 || a == 90 {
			continue
		}
		if count[-a] != n {
			return false
		}
	}
	return true
}
