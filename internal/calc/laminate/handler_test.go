package laminate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Layup/internal/calc/lamina"
)

type fakePresets map[string]lamina.Material

func (f fakePresets) Lookup(name string) (lamina.Material, error) {
	m, ok := f[name]
	if !ok {
		return lamina.Material{}, fmt.Errorf("%w: %q", lamina.ErrUnknownPreset, name)
	}
	return m, nil
}

var presets = fakePresets{"AS4/3501-6": as4}

func post(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestInputStackingAndThickness(t *testing.T) {
	in := Input{Layup: "[0/90]s", Angles: []float64{45}}
	assert.Equal(t, Notation("[0/90]s"), in.Stacking())
	in.Layup = ""
	assert.Equal(t, Angles{45}, in.Stacking())
	in.Angles = nil
	assert.Nil(t, in.Stacking())

	in.ThicknessMM = 0.2
	assert.Equal(t, Uniform(0.2), in.Thickness())
	in.PlyThicknessMM = []float64{0.1}
	assert.Equal(t, PerPly{0.1}, in.Thickness())
}

func TestHandlerCalc(t *testing.T) {
	h := &Handler{Presets: presets}
	rec := post(t, h.Calc, `{"preset":"AS4/3501-6","layup":"[0/45/-45/90]_s","thickness_mm":0.125}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 8, res.NPlies)
	assert.Equal(t, "[0/45/-45/90/90/-45/45/0]", res.Notation)
	assert.True(t, res.Symmetric)
	assert.True(t, res.Balanced)
	assert.InDelta(t, 1.0, res.ThicknessMM, 1e-12)
	require.NotNil(t, res.Properties)
	assert.InDelta(t, 56.67556381999818, res.Properties.Ex, 1e-6)
}

func TestHandlerCalcErrors(t *testing.T) {
	h := &Handler{Presets: presets}

	rec := post(t, h.Calc, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request payload")

	rec = post(t, h.Calc, `{"preset":"Unobtainium","layup":"0/90","thickness_mm":0.1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, h.Calc, `{"preset":"AS4/3501-6","layup":"0//90","thickness_mm":0.1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed")
}

func TestHandlerSolve(t *testing.T) {
	h := &Handler{Presets: presets}
	rec := post(t, h.Solve, `{"material":{"e1":142,"e2":10.3,"g12":7.2,"nu12":0.27},"layup":"[0/90]s","thickness_mm":0.125,"loads":{"Nx":100}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res SolveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 2.6159963617492106, res.Strains[0], 1e-9)
	assert.Len(t, res.Profile, 4)

	rec = post(t, h.Solve, `{"preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"loads":{"Qx":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerStress(t *testing.T) {
	h := &Handler{Presets: presets}
	rec := post(t, h.Stress, `{"preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"loads":{"nx":100},"ply":1,"surface":"top"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res StressResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, SurfaceTop, res.Surface)
	assert.Equal(t, 90.0, res.Angle)
	assert.InDelta(t, 0.0, res.Z, 1e-15)
	assert.InDelta(t, 26.820900207963483, res.Global[0], 1e-6)

	rec = post(t, h.Stress, `{"preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"ply":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "out of range"))

	rec = post(t, h.Stress, `{"preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"surface":"edge"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
