package micromech

import (
	"encoding/json"
	"net/http"

	"Layup/internal/calc/lamina"
)

// Input takes the volume fraction directly or, when Vf is zero and
// fiber geometry is given, derives it with FiberVolumeFraction.
type Input struct {
	EfGPa   float64 `json:"ef_gpa"`
	NuF     float64 `json:"nu_f"`
	EmGPa   float64 `json:"em_gpa"`
	NuM     float64 `json:"nu_m"`
	Vf      float64 `json:"vf"`
	Method  Method  `json:"method"`
	XiE2    float64 `json:"xi_e2"`
	XiG12   float64 `json:"xi_g12"`
	Fibers  float64 `json:"n_fibers"`
	DiamMM  float64 `json:"fiber_diameter_mm"`
	WidthMM float64 `json:"width_mm"`
	PlyMM   float64 `json:"ply_thickness_mm"`
}

type Result struct {
	Vf            float64         `json:"vf"`
	Vm            float64         `json:"vm"`
	E1            float64         `json:"e1"`
	E2HalpinTsai  float64         `json:"e2_halpin_tsai"`
	E2InverseROM  float64         `json:"e2_inverse_rom"`
	G12HalpinTsai float64         `json:"g12_halpin_tsai"`
	Nu12          float64         `json:"nu12"`
	Gf            float64         `json:"gf"`
	Gm            float64         `json:"gm"`
	Constants     lamina.Material `json:"constants"`
	Notes         string          `json:"notes"`
}

func Calculate(in Input) (Result, error) {
	vf := in.Vf
	if vf == 0 && in.Fibers > 0 {
		vf = FiberVolumeFraction(in.Fibers, in.DiamMM, in.WidthMM, in.PlyMM)
	}
	if in.XiE2 == 0 {
		in.XiE2 = DefaultXiTransverse
	}
	if in.XiG12 == 0 {
		in.XiG12 = DefaultXiShear
	}
	m, err := New(in.EfGPa, in.NuF, in.EmGPa, in.NuM, vf)
	if err != nil {
		return Result{}, err
	}
	e2, err := m.TransverseModulusHalpinTsai(in.XiE2)
	if err != nil {
		return Result{}, err
	}
	g12, err := m.ShearModulusHalpinTsai(in.XiG12)
	if err != nil {
		return Result{}, err
	}
	consts, err := m.EngineeringConstants(in.Method)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Vf:            m.Vf,
		Vm:            m.Vm,
		E1:            m.LongitudinalModulus(),
		E2HalpinTsai:  e2,
		E2InverseROM:  m.TransverseModulusInverseROM(),
		G12HalpinTsai: g12,
		Nu12:          m.MajorPoissonRatio(),
		Gf:            m.FiberShearModulus(),
		Gm:            m.MatrixShearModulus(),
		Constants:     consts,
		Notes:         "Rule of mixtures with Halpin-Tsai transverse and shear moduli.",
	}, nil
}

type Handler struct{}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
