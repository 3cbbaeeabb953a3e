package micromech

import (
	"errors"
	"fmt"
	"math"

	"Layup/internal/calc/lamina"
)

var (
	// ErrInvalidConstituent marks fiber/matrix input that cannot be homogenized.
	ErrInvalidConstituent = errors.New("micromech: invalid constituent properties")
	// ErrDegenerate is returned when a Halpin-Tsai denominator vanishes.
	ErrDegenerate = errors.New("micromech: degenerate Halpin-Tsai denominator")
	// ErrUnknownMethod is returned for an unsupported homogenization method.
	ErrUnknownMethod = errors.New("micromech: unknown method")
)

// Reinforcement factors for circular fibers.
const (
	DefaultXiTransverse = 2.0
	DefaultXiShear      = 1.0
)

type Method string

const (
	MethodHalpinTsai Method = "halpin-tsai"
	MethodInverseROM Method = "inverse-rom"
)

// FiberVolumeFraction estimates V_f from a fiber count across a reference
// width of a ply: n·π·(d/2)² / (width·thickness). All lengths must share one
// unit; nothing here checks that.
func FiberVolumeFraction(nFibers, diameter, width, thickness float64) float64 {
	fibers := nFibers * math.Pi * (diameter / 2) * (diameter / 2)
	return fibers / (width * thickness)
}

// Micromechanics homogenizes isotropic fiber and matrix constituents.
type Micromechanics struct {
	Ef, NuF float64
	Em, NuM float64
	Vf, Vm  float64
}

func New(ef, nuF, em, nuM, vf float64) (*Micromechanics, error) {
	for _, v := range []float64{ef, nuF, em, nuM, vf} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite input", ErrInvalidConstituent)
		}
	}
	if vf < 0 || vf > 1 {
		return nil, fmt.Errorf("%w: fiber volume fraction %g outside [0,1]", ErrInvalidConstituent, vf)
	}
	if ef <= 0 || em <= 0 {
		return nil, fmt.Errorf("%w: moduli must be positive (Ef=%g Em=%g)", ErrInvalidConstituent, ef, em)
	}
	if nuF <= -1 || nuF > 0.5 || nuM <= -1 || nuM > 0.5 {
		return nil, fmt.Errorf("%w: poisson ratios (%g, %g) outside (-1, 0.5]", ErrInvalidConstituent, nuF, nuM)
	}
	return &Micromechanics{Ef: ef, NuF: nuF, Em: em, NuM: nuM, Vf: vf, Vm: 1 - vf}, nil
}

// LongitudinalModulus is the rule of mixtures E1 = Ef·Vf + Em·Vm.
func (m *Micromechanics) LongitudinalModulus() float64 {
	return m.Ef*m.Vf + m.Em*m.Vm
}

// TransverseModulusHalpinTsai returns E2; xi is the reinforcement geometry
// factor (DefaultXiTransverse for circular fibers).
func (m *Micromechanics) TransverseModulusHalpinTsai(xi float64) (float64, error) {
	return halpinTsai(m.Em, m.Ef/m.Em, xi, m.Vf)
}

// TransverseModulusInverseROM is the lower bound 1/(Vf/Ef + Vm/Em).
func (m *Micromechanics) TransverseModulusInverseROM() float64 {
	return 1 / (m.Vf/m.Ef + m.Vm/m.Em)
}

func (m *Micromechanics) MajorPoissonRatio() float64 {
	return m.NuF*m.Vf + m.NuM*m.Vm
}

func (m *Micromechanics) FiberShearModulus() float64 {
	return m.Ef / (2 * (1 + m.NuF))
}

func (m *Micromechanics) MatrixShearModulus() float64 {
	return m.Em / (2 * (1 + m.NuM))
}

// ShearModulusHalpinTsai returns G12 (DefaultXiShear for circular fibers).
func (m *Micromechanics) ShearModulusHalpinTsai(xi float64) (float64, error) {
	gf, gm := m.FiberShearModulus(), m.MatrixShearModulus()
	return halpinTsai(gm, gf/gm, xi, m.Vf)
}

// EngineeringConstants returns the ply constants for the chosen method.
// The inverse-ROM branch estimates G12 as Gm/(1-Vf).
func (m *Micromechanics) EngineeringConstants(method Method) (lamina.Material, error) {
	out := lamina.Material{E1: m.LongitudinalModulus(), Nu12: m.MajorPoissonRatio()}
	switch method {
	case MethodHalpinTsai, "":
		e2, err := m.TransverseModulusHalpinTsai(DefaultXiTransverse)
		if err != nil {
			return lamina.Material{}, err
		}
		g12, err := m.ShearModulusHalpinTsai(DefaultXiShear)
		if err != nil {
			return lamina.Material{}, err
		}
		out.E2, out.G12 = e2, g12
	case MethodInverseROM:
		if m.Vm == 0 {
			return lamina.Material{}, fmt.Errorf("%w: inverse-rom shear estimate needs Vf < 1", ErrDegenerate)
		}
		out.E2 = m.TransverseModulusInverseROM()
		out.G12 = m.MatrixShearModulus() / m.Vm
	default:
		return lamina.Material{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return out, nil
}

// halpinTsai evaluates M = Mm(1+ξηVf)/(1-ηVf), η = (ratio-1)/(ratio+ξ).
// ξ is a geometry factor and must be positive; with ratio > 0 both
// denominators are then bounded away from zero.
func halpinTsai(mm, ratio, xi, vf float64) (float64, error) {
	if !(xi > 0) || math.IsInf(xi, 0) {
		return 0, fmt.Errorf("%w: xi must be positive and finite, got %g", ErrDegenerate, xi)
	}
	eta := (ratio - 1) / (ratio + xi)
	den := 1 - eta*vf
	if den <= 1e-12 {
		return 0, fmt.Errorf("%w: 1-eta*Vf = %g", ErrDegenerate, den)
	}
	return mm * (1 + xi*eta*vf) / den, nil
}
