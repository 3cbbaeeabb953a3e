package laminate

import (
	"fmt"
	"strings"

	"Layup/internal/calc/matrix"
)

// Surface selects where in a ply stresses are evaluated.
type Surface string

const (
	SurfaceBottom Surface = "bottom"
	SurfaceMid    Surface = "mid"
	SurfaceTop    Surface = "top"
)

// ParseSurface accepts top, mid or bottom in any case; empty means mid.
func ParseSurface(s string) (Surface, error) {
	switch Surface(strings.ToLower(strings.TrimSpace(s))) {
	case SurfaceTop:
		return SurfaceTop, nil
	case SurfaceMid, "":
		return SurfaceMid, nil
	case SurfaceBottom:
		return SurfaceBottom, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSurface, s)
}

// PlyZ returns the through-thickness coordinate of a ply surface.
func (l *Laminate) PlyZ(i int, s Surface) (float64, error) {
	if i < 0 || i >= len(l.plies) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, len(l.plies))
	}
	switch s {
	case SurfaceBottom:
		return l.z[i], nil
	case SurfaceTop:
		return l.z[i+1], nil
	case SurfaceMid:
		return (l.z[i] + l.z[i+1]) / 2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSurface, s)
}

// PlyStress evaluates the stress at a surface of ply i for the given
// mid-plane state. global is (σx, σy, τxy); local is (σ1, σ2, τ12).
func (l *Laminate) PlyStress(strains, curvatures matrix.Vec3, i int, s Surface) (global, local matrix.Vec3, err error) {
	z, err := l.PlyZ(i, s)
	if err != nil {
		return matrix.Vec3{}, matrix.Vec3{}, err
	}
	p := l.plies[i]
	eps := strains.Add(curvatures.Scale(z))
	global = p.QBar().MulVec(eps)
	local = p.StressToMaterial(global)
	return global, local, nil
}

// SurfaceStress is the state at one surface of a ply.
type SurfaceStress struct {
	Z      float64     `json:"z"`
	Strain matrix.Vec3 `json:"strain"`
	Global matrix.Vec3 `json:"global"`
	Local  matrix.Vec3 `json:"local"`
}

// PlyStresses holds bottom, mid and top values for one ply.
type PlyStresses struct {
	Index  int           `json:"index"`
	Angle  float64       `json:"angle"`
	Bottom SurfaceStress `json:"bottom"`
	Mid    SurfaceStress `json:"mid"`
	Top    SurfaceStress `json:"top"`
}

// StressProfile evaluates every ply at its bottom, middle and top surfaces.
func (l *Laminate) StressProfile(strains, curvatures matrix.Vec3) []PlyStresses {
	out := make([]PlyStresses, len(l.plies))
	for i := range l.plies {
		ps := PlyStresses{Index: i, Angle: l.angles[i]}
		for _, s := range []Surface{SurfaceBottom, SurfaceMid, SurfaceTop} {
			z, _ := l.PlyZ(i, s)
			g, loc, _ := l.PlyStress(strains, curvatures, i, s)
			ss := SurfaceStress{Z: z, Strain: strains.Add(curvatures.Scale(z)), Global: g, Local: loc}
			switch s {
			case SurfaceBottom:
				ps.Bottom = ss
			case SurfaceMid:
				ps.Mid = ss
			case SurfaceTop:
				ps.Top = ss
			}
		}
		out[i] = ps
	}
	return out
}
