package laminate

import (
	"fmt"
	"math"
)

// Properties are the effective in-plane engineering constants of the
// laminate taken from the extensional block a* of the compliance.
type Properties struct {
	Ex   float64 `json:"ex"`
	Ey   float64 `json:"ey"`
	Gxy  float64 `json:"gxy"`
	NuXY float64 `json:"nu_xy"`
	NuYX float64 `json:"nu_yx"`
}

// EffectiveProperties returns Ex = 1/(h·a11), Ey = 1/(h·a22),
// Gxy = 1/(h·a66), νxy = -a12/a11 and νyx = -a12/a22. Meaningful for
// symmetric laminates, where B vanishes.
func (l *Laminate) EffectiveProperties() (Properties, error) {
	a := l.inv.Sub(0, 0)
	for _, v := range []float64{a[0][0], a[1][1], a[2][2]} {
		if v == 0 || math.IsNaN(v) {
			return Properties{}, fmt.Errorf("%w: zero extensional compliance", ErrSingularSystem)
		}
	}
	h := l.h
	return Properties{
		Ex:   1 / (h * a[0][0]),
		Ey:   1 / (h * a[1][1]),
		Gxy:  1 / (h * a[2][2]),
		NuXY: -a[0][1] / a[0][0],
		NuYX: -a[1][0] / a[1][1],
	}, nil
}
