package batch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/loads"
)

var as4 = lamina.Material{E1: 142, E2: 10.3, G12: 7.2, Nu12: 0.27}

type onePreset struct{}

func (onePreset) Lookup(name string) (lamina.Material, error) {
	if name != "AS4/3501-6" {
		return lamina.Material{}, lamina.ErrUnknownPreset
	}
	return as4, nil
}

func scenario(name, layup string, t float64) Scenario {
	return Scenario{
		Name: name,
		Input: laminate.Input{
			MaterialInput: lamina.MaterialInput{Preset: "AS4/3501-6"},
			Layup:         layup,
			ThicknessMM:   t,
		},
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	good := scenario("qi", "[0/45/-45/90]_s", 0.125)
	good.Loads = map[string]float64{"Nx": 100}
	badLayup := scenario("typo", "0//90", 0.125)
	badThickness := scenario("thin", "[0/90]", 0)
	plain := scenario("no loads", "[0/90]s", 0.2)

	res, err := Run(Input{Scenarios: []Scenario{good, badLayup, badThickness, plain}}, onePreset{})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 4)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, "4 scenarios, 2 ok, 2 failed", res.Summary())

	o := res.Outcomes[0]
	assert.Empty(t, o.Error)
	require.NotNil(t, o.Laminate)
	assert.Equal(t, 8, o.Laminate.NPlies)
	require.NotNil(t, o.Strains)
	require.NotNil(t, o.MaxLocal)
	assert.Greater(t, o.MaxLocal[0], 0.0)

	assert.Contains(t, res.Outcomes[1].Error, "malformed")
	assert.Equal(t, 1, res.Outcomes[1].Index)
	assert.Equal(t, "typo", res.Outcomes[1].Name)
	assert.Contains(t, res.Outcomes[2].Error, "thickness")

	assert.Empty(t, res.Outcomes[3].Error)
	assert.Nil(t, res.Outcomes[3].Strains)
}

func TestRunCombinesCases(t *testing.T) {
	sc := scenario("combo", "[0/90]s", 0.125)
	sc.Cases = []loads.Case{
		{Name: "dead", Factor: 1.35, Loads: map[string]float64{"Nx": 10}},
		{Name: "live", Factor: 1.5, Loads: map[string]float64{"Nx": 20, "Mx": 0.5}},
	}
	sc.Loads = map[string]float64{"Nx": 1e6}

	res, err := Run(Input{Scenarios: []Scenario{sc}}, onePreset{})
	require.NoError(t, err)
	o := res.Outcomes[0]
	require.Empty(t, o.Error)
	require.NotNil(t, o.Loads)
	assert.InDelta(t, 43.5, o.Loads[0], 1e-12)
	assert.InDelta(t, 0.75, o.Loads[3], 1e-12)
	assert.Equal(t, "1.35*dead + 1.5*live", o.Combo)

	sc.Cases[1].Loads = map[string]float64{"Tz": 1}
	res, err = Run(Input{Scenarios: []Scenario{sc}}, onePreset{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Outcomes[0].Error, "unknown load component")
}

func TestRunEmpty(t *testing.T) {
	_, err := Run(Input{}, onePreset{})
	assert.ErrorIs(t, err, ErrNoScenarios)
}

func TestHandlerCalc(t *testing.T) {
	h := &Handler{Presets: onePreset{}}
	body := `{"scenarios":[{"name":"a","preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"loads":{"nx":1}},{"name":"b","preset":"missing","layup":"0","thickness_mm":0.1}]}`
	rec := httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	rec = httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"scenarios":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
