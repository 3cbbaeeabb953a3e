package laminate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Stacking is a ply angle sequence, either explicit (Angles) or in compact
// notation (Notation). It is resolved once when a Laminate is built.
type Stacking interface {
	resolve() ([]float64, error)
}

// Angles is an explicit bottom-to-top list of ply angles in degrees.
type Angles []float64

// Notation is the compact form, e.g. "[0/45/-45/90]_s". A trailing "_s" or
// "s" (any case) appends the reversed list.
type Notation string

func (a Angles) resolve() ([]float64, error) {
	if len(a) == 0 {
		return nil, fmt.Errorf("%w: no plies", ErrMalformedSequence)
	}
	out := make([]float64, len(a))
	for i, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: angle %d is not finite", ErrMalformedSequence, i)
		}
		out[i] = v
	}
	return out, nil
}

func (n Notation) resolve() ([]float64, error) {
	return ParseNotation(string(n))
}

// ParseNotation expands compact stacking notation into explicit angles.
func ParseNotation(s string) ([]float64, error) {
	clean := strings.NewReplacer("[", "", "]", "", " ", "", "\t", "", "\n", "").Replace(s)

	symmetric := false
	lower := strings.ToLower(clean)
	switch {
	case strings.HasSuffix(lower, "_s"):
		clean, symmetric = clean[:len(clean)-2], true
	case strings.HasSuffix(lower, "s"):
		clean, symmetric = clean[:len(clean)-1], true
	}
	if clean == "" {
		return nil, fmt.Errorf("%w: %q has no angles", ErrMalformedSequence, s)
	}

	tokens := strings.Split(clean, "/")
	angles := make([]float64, 0, 2*len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: bad angle %q in %q", ErrMalformedSequence, tok, s)
		}
		angles = append(angles, v)
	}
	if symmetric {
		for i := len(angles) - 1; i >= 0; i-- {
			angles = append(angles, angles[i])
		}
	}
	return angles, nil
}

// FormatAngles renders angles in compact notation without symmetry folding.
func FormatAngles(angles []float64) string {
	parts := make([]string, len(angles))
	for i, a := range angles {
		parts[i] = strconv.FormatFloat(a, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, "/") + "]"
}

// Thickness gives the per-ply thicknesses once the ply count is known.
type Thickness interface {
	perPly(n int) ([]float64, error)
}

// Uniform applies one thickness to every ply.
type Uniform float64

// PerPly lists one thickness per resolved ply, bottom to top.
type PerPly []float64

func (u Uniform) perPly(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(u)
	}
	return out, checkThickness(out)
}

func (p PerPly) perPly(n int) ([]float64, error) {
	if len(p) != n {
		return nil, fmt.Errorf("%w: %d thicknesses for %d plies", ErrMalformedSequence, len(p), n)
	}
	out := append([]float64(nil), p...)
	return out, checkThickness(out)
}

func checkThickness(ts []float64) error {
	for i, t := range ts {
		if !(t > 0) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: ply %d has thickness %g", ErrInvalidThickness, i, t)
		}
	}
	return nil
}
