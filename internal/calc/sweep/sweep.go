// Package sweep evaluates a laminate across a range of one parameter: a
// rigid rotation of the whole stack, the angle of a single ply, or one
// ply material constant. Points are independent and are built on a
// bounded pool of goroutines; results always come back in input order.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/matrix"
)

var (
	ErrNoPoints      = errors.New("sweep: no sweep values")
	ErrUnknownProp   = errors.New("sweep: unknown material property")
	ErrPlyOutOfRange = errors.New("sweep: ply index out of range")
)

// MaxPoints bounds the number of values in one sweep.
const MaxPoints = 10000

// Point is the laminate state at one sweep value. Err is set instead of
// the matrices when that value does not give a valid laminate.
type Point struct {
	X   float64     `json:"x"`
	A   matrix.Mat3 `json:"a"`
	D   matrix.Mat3 `json:"d"`
	Err string      `json:"error,omitempty"`
}

// Runner fans point evaluations out to Workers goroutines; zero means
// GOMAXPROCS.
type Runner struct {
	Workers int
}

func (r Runner) workers(n int) int {
	w := r.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	return w
}

// run calls eval for every value of xs. Each call writes only its own
// slot. The context is checked between points.
func (r Runner) run(ctx context.Context, xs []float64, eval func(x float64) Point) ([]Point, error) {
	n := len(xs)
	if n == 0 {
		return nil, ErrNoPoints
	}
	if n > MaxPoints {
		return nil, fmt.Errorf("%w: %d values, at most %d", ErrNoPoints, n, MaxPoints)
	}
	out := make([]Point, n)
	next := make(chan int)

	nw := r.workers(n)
	var wg sync.WaitGroup
	wg.Add(nw)
	for w := 0; w < nw; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				out[i] = eval(xs[i])
			}
		}()
	}

	var err error
feed:
	for i := range xs {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}

func pointFrom(x float64, l *laminate.Laminate, err error) Point {
	if err != nil {
		return Point{X: x, Err: err.Error()}
	}
	return Point{X: x, A: l.A(), D: l.D()}
}

// Normalize maps an angle into (-180, 180].
func Normalize(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// Steps returns from, from+step, ... up to and including to when it lands
// on the grid. Values are computed by index to avoid drift.
func Steps(from, to, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) || math.IsNaN(from) || math.IsNaN(to) ||
		math.IsInf(from, 0) || math.IsInf(to, 0) || to < from {
		return nil, fmt.Errorf("%w: from %g to %g step %g", ErrNoPoints, from, to, step)
	}
	count := math.Floor((to-from)/step+1e-9) + 1
	if !(count <= MaxPoints) {
		return nil, fmt.Errorf("%w: from %g to %g step %g gives more than %d points", ErrNoPoints, from, to, step, MaxPoints)
	}
	n := int(count)
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out, nil
}

// Rotation rotates every ply of base by each value in rotations and
// records A and D. Rotated angles are normalized into (-180, 180].
func (r Runner) Rotation(ctx context.Context, m lamina.Material, base []float64, t laminate.Thickness, rotations []float64) ([]Point, error) {
	return r.run(ctx, rotations, func(rot float64) Point {
		seq := make(laminate.Angles, len(base))
		for i, a := range base {
			seq[i] = Normalize(a + rot)
		}
		l, err := laminate.New(m, seq, t)
		return pointFrom(rot, l, err)
	})
}

// PlyAngle replaces the angle of ply with each value in angles.
func (r Runner) PlyAngle(ctx context.Context, m lamina.Material, base []float64, t laminate.Thickness, ply int, angles []float64) ([]Point, error) {
	if ply < 0 || ply >= len(base) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrPlyOutOfRange, ply, len(base))
	}
	return r.run(ctx, angles, func(a float64) Point {
		seq := append(laminate.Angles(nil), base...)
		seq[ply] = a
		l, err := laminate.New(m, seq, t)
		return pointFrom(a, l, err)
	})
}

// Property varies one ply constant (e1, e2, g12 or nu12). Values that give a
// non-physical material produce a Point with Err set.
func (r Runner) Property(ctx context.Context, m lamina.Material, base []float64, t laminate.Thickness, prop string, values []float64) ([]Point, error) {
	set, err := setter(prop)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, values, func(v float64) Point {
		mv := m
		set(&mv, v)
		l, err := laminate.New(mv, laminate.Angles(base), t)
		return pointFrom(v, l, err)
	})
}

func setter(prop string) (func(*lamina.Material, float64), error) {
	switch strings.ToLower(prop) {
	case "e1":
		return func(m *lamina.Material, v float64) { m.E1 = v }, nil
	case "e2":
		return func(m *lamina.Material, v float64) { m.E2 = v }, nil
	case "g12":
		return func(m *lamina.Material, v float64) { m.G12 = v }, nil
	case "nu12":
		return func(m *lamina.Material, v float64) { m.Nu12 = v }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProp, prop)
}

// Summary tells whether A is invariant under rotation. A laminate is
// quasi-isotropic here when the A11 range is under 1% of its mean and
// |A16|, |A26| stay under 0.01 N/mm. A is carried in GPa·mm (kN/mm), so
// the coupling limit is 1e-5 in those units.
type Summary struct {
	A11Min         float64 `json:"a11_min"`
	A11Max         float64 `json:"a11_max"`
	A11Mean        float64 `json:"a11_mean"`
	RangePercent   float64 `json:"range_percent"`
	MaxAbsA16      float64 `json:"max_abs_a16"`
	MaxAbsA26      float64 `json:"max_abs_a26"`
	QuasiIsotropic bool    `json:"quasi_isotropic"`
}

const (
	rangeLimit    = 0.01
	couplingLimit = 1e-5
)

// QuasiIsotropy summarizes a rotation sweep. Points with Err are skipped.
func QuasiIsotropy(points []Point) Summary {
	s := Summary{A11Min: math.Inf(1), A11Max: math.Inf(-1)}
	var sum float64
	var n int
	for _, p := range points {
		if p.Err != "" {
			continue
		}
		a := p.A
		s.A11Min = math.Min(s.A11Min, a[0][0])
		s.A11Max = math.Max(s.A11Max, a[0][0])
		s.MaxAbsA16 = math.Max(s.MaxAbsA16, math.Abs(a[0][2]))
		s.MaxAbsA26 = math.Max(s.MaxAbsA26, math.Abs(a[1][2]))
		sum += a[0][0]
		n++
	}
	if n == 0 {
		return Summary{}
	}
	s.A11Mean = sum / float64(n)
	rng := s.A11Max - s.A11Min
	if s.A11Mean != 0 {
		s.RangePercent = 100 * rng / s.A11Mean
	}
	s.QuasiIsotropic = rng < rangeLimit*s.A11Mean &&
		s.MaxAbsA16 < couplingLimit && s.MaxAbsA26 < couplingLimit
	return s
}
