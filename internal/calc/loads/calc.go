package loads

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"Layup/internal/calc/matrix"
)

// ErrUnknownComponent is returned for a load name outside Nx..Mxy.
var ErrUnknownComponent = errors.New("loads: unknown load component")

// Names lists the resultant components in solve order.
var Names = [6]string{"Nx", "Ny", "Nxy", "Mx", "My", "Mxy"}

// FromMap builds a load vector from named resultants; missing names are zero.
// Names match case-insensitively.
func FromMap(in map[string]float64) (matrix.Vec6, error) {
	var v matrix.Vec6
	for k, val := range in {
		i := index(k)
		if i < 0 {
			return matrix.Vec6{}, fmt.Errorf("%w: %q", ErrUnknownComponent, k)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return matrix.Vec6{}, fmt.Errorf("loads: %s is not finite", Names[i])
		}
		v[i] = val
	}
	return v, nil
}

// ToMap is the inverse of FromMap.
func ToMap(v matrix.Vec6) map[string]float64 {
	out := make(map[string]float64, 6)
	for i, n := range Names {
		out[n] = v[i]
	}
	return out
}

func index(name string) int {
	for i, n := range Names {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Case is one named load case scaled by a partial factor.
type Case struct {
	Name   string             `json:"name"`
	Factor float64            `json:"factor"`
	Loads  map[string]float64 `json:"loads"`
}

type Input struct {
	Cases []Case `json:"cases"`
}

type Result struct {
	Loads     map[string]float64 `json:"loads"`
	ComboName string             `json:"combo_name"`
	Notes     string             `json:"notes"`
}

// Combine sums factored load cases. A zero factor is taken as 1.
func Combine(in Input) (matrix.Vec6, Result, error) {
	if len(in.Cases) == 0 {
		return matrix.Vec6{}, Result{}, fmt.Errorf("no load cases")
	}
	var total matrix.Vec6
	names := make([]string, 0, len(in.Cases))
	for _, c := range in.Cases {
		v, err := FromMap(c.Loads)
		if err != nil {
			return matrix.Vec6{}, Result{}, fmt.Errorf("case %q: %w", c.Name, err)
		}
		f := c.Factor
		if f == 0 {
			f = 1
		}
		for i := range total {
			total[i] += f * v[i]
		}
		names = append(names, fmt.Sprintf("%g*%s", f, c.Name))
	}
	return total, Result{
		Loads:     ToMap(total),
		ComboName: strings.Join(names, " + "),
		Notes:     "Linear superposition of factored load cases.",
	}, nil
}
