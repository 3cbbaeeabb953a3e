package laminate

import (
	"encoding/json"
	"net/http"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/matrix"
)

// Input describes a laminate in request form. Layup (compact notation)
// wins over Angles; PlyThicknessMM wins over ThicknessMM.
type Input struct {
	lamina.MaterialInput
	Layup          string    `json:"layup,omitempty"`
	Angles         []float64 `json:"angles,omitempty"`
	ThicknessMM    float64   `json:"thickness_mm,omitempty"`
	PlyThicknessMM []float64 `json:"ply_thickness_mm,omitempty"`
}

func (in Input) Stacking() Stacking {
	if in.Layup != "" {
		return Notation(in.Layup)
	}
	if len(in.Angles) > 0 {
		return Angles(in.Angles)
	}
	return nil
}

func (in Input) Thickness() Thickness {
	if len(in.PlyThicknessMM) > 0 {
		return PerPly(in.PlyThicknessMM)
	}
	return Uniform(in.ThicknessMM)
}

// Build resolves the material and constructs the laminate.
func (in Input) Build(p lamina.Presets) (*Laminate, error) {
	m, err := in.Resolve(p)
	if err != nil {
		return nil, err
	}
	return New(m, in.Stacking(), in.Thickness())
}

type Result struct {
	Material    lamina.Material `json:"material"`
	Angles      []float64       `json:"angles"`
	Notation    string          `json:"notation"`
	NPlies      int             `json:"n_plies"`
	ThicknessMM float64         `json:"total_thickness_mm"`
	ZCoords     []float64       `json:"z_coords"`
	A           matrix.Mat3     `json:"a"`
	B           matrix.Mat3     `json:"b"`
	D           matrix.Mat3     `json:"d"`
	Compliance  matrix.Mat6     `json:"compliance"`
	Symmetric   bool            `json:"symmetric"`
	Balanced    bool            `json:"balanced"`
	Properties  *Properties     `json:"properties,omitempty"`
}

// Summarize collects the matrices and flags of a built laminate.
func Summarize(l *Laminate) Result {
	res := Result{
		Material:    l.Material(),
		Angles:      l.Angles(),
		Notation:    FormatAngles(l.angles),
		NPlies:      l.NPlies(),
		ThicknessMM: l.TotalThickness(),
		ZCoords:     l.ZCoords(),
		A:           l.A(),
		B:           l.B(),
		D:           l.D(),
		Compliance:  l.Compliance(),
		Symmetric:   l.IsSymmetric(),
		Balanced:    l.IsBalanced(),
	}
	if p, err := l.EffectiveProperties(); err == nil {
		res.Properties = &p
	}
	return res
}

func Calculate(in Input, p lamina.Presets) (Result, error) {
	l, err := in.Build(p)
	if err != nil {
		return Result{}, err
	}
	return Summarize(l), nil
}

type SolveInput struct {
	Input
	Loads map[string]float64 `json:"loads"`
}

type SolveResult struct {
	Strains    matrix.Vec3   `json:"strains"`
	Curvatures matrix.Vec3   `json:"curvatures"`
	Profile    []PlyStresses `json:"profile"`
}

func SolveCalculate(in SolveInput, p lamina.Presets) (SolveResult, error) {
	l, err := in.Build(p)
	if err != nil {
		return SolveResult{}, err
	}
	eps, kappa, err := l.SolveMap(in.Loads)
	if err != nil {
		return SolveResult{}, err
	}
	return SolveResult{
		Strains:    eps,
		Curvatures: kappa,
		Profile:    l.StressProfile(eps, kappa),
	}, nil
}

// StressInput asks for one ply surface. Loads, when given, are solved
// first; otherwise Strains and Curvatures are used as the mid-plane state.
type StressInput struct {
	Input
	Loads      map[string]float64 `json:"loads,omitempty"`
	Strains    matrix.Vec3        `json:"strains"`
	Curvatures matrix.Vec3        `json:"curvatures"`
	Ply        int                `json:"ply"`
	Surface    string             `json:"surface"`
}

type StressResult struct {
	Ply     int         `json:"ply"`
	Angle   float64     `json:"angle"`
	Surface Surface     `json:"surface"`
	Z       float64     `json:"z"`
	Global  matrix.Vec3 `json:"global"`
	Local   matrix.Vec3 `json:"local"`
}

func StressCalculate(in StressInput, p lamina.Presets) (StressResult, error) {
	l, err := in.Build(p)
	if err != nil {
		return StressResult{}, err
	}
	surf, err := ParseSurface(in.Surface)
	if err != nil {
		return StressResult{}, err
	}
	eps, kappa := in.Strains, in.Curvatures
	if len(in.Loads) > 0 {
		if eps, kappa, err = l.SolveMap(in.Loads); err != nil {
			return StressResult{}, err
		}
	}
	z, err := l.PlyZ(in.Ply, surf)
	if err != nil {
		return StressResult{}, err
	}
	g, loc, err := l.PlyStress(eps, kappa, in.Ply, surf)
	if err != nil {
		return StressResult{}, err
	}
	return StressResult{
		Ply:     in.Ply,
		Angle:   l.angles[in.Ply],
		Surface: surf,
		Z:       z,
		Global:  g,
		Local:   loc,
	}, nil
}

type Handler struct {
	Presets lamina.Presets
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(input, h.Presets)
	writeResult(w, res, err)
}

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var input SolveInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := SolveCalculate(input, h.Presets)
	writeResult(w, res, err)
}

func (h *Handler) Stress(w http.ResponseWriter, r *http.Request) {
	var input StressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := StressCalculate(input, h.Presets)
	writeResult(w, res, err)
}

func writeResult(w http.ResponseWriter, res any, err error) {
	if err != nil {
		http.Error(w, err.Error(), lamina.ErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
