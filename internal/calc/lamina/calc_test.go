package lamina

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Layup/internal/calc/matrix"
)

var as4 = Material{E1: 142, E2: 10.3, G12: 7.2, Nu12: 0.27}

func mustLamina(t *testing.T, m Material, theta float64) *Lamina {
	t.Helper()
	l, err := New(m, 0.125, theta)
	require.NoError(t, err)
	return l
}

func TestReducedStiffness(t *testing.T) {
	l := mustLamina(t, as4, 0)
	q := l.Q()

	den := 1 - as4.Nu12*as4.Nu12*as4.E2/as4.E1
	assert.InDelta(t, as4.E1/den, q[0][0], 1e-12)
	assert.InDelta(t, as4.E2/den, q[1][1], 1e-12)
	assert.InDelta(t, as4.Nu12*as4.E2/den, q[0][1], 1e-12)
	assert.Equal(t, as4.G12, q[2][2])
	assert.Zero(t, q[0][2])
	assert.Zero(t, q[1][2])
	assert.True(t, q.IsSymmetric(0))
}

func TestQBarAtZeroIsQ(t *testing.T) {
	l := mustLamina(t, as4, 0)
	assert.Equal(t, l.Q(), l.QBar())
}

func TestQBarNoShearCouplingAtRightAngles(t *testing.T) {
	for _, theta := range []float64{90, -90, 180, 270} {
		qb := mustLamina(t, as4, theta).QBar()
		assert.Zero(t, qb[0][2], "theta %v", theta)
		assert.Zero(t, qb[1][2], "theta %v", theta)
	}
	qb := mustLamina(t, as4, 90).QBar()
	q := mustLamina(t, as4, 0).Q()
	assert.InDelta(t, q[1][1], qb[0][0], 1e-12)
	assert.InDelta(t, q[0][0], qb[1][1], 1e-12)
}

func TestQBarParity(t *testing.T) {
	for theta := -180.0; theta <= 180; theta += 7.5 {
		pos := mustLamina(t, as4, theta).QBar()
		neg := mustLamina(t, as4, -theta).QBar()
		for _, ij := range [][2]int{{0, 0}, {1, 1}, {0, 1}, {2, 2}} {
			assert.InDelta(t, pos[ij[0]][ij[1]], neg[ij[0]][ij[1]], 1e-9, "even entry %v at %v", ij, theta)
		}
		assert.InDelta(t, pos[0][2], -neg[0][2], 1e-9, "Q16 at %v", theta)
		assert.InDelta(t, pos[1][2], -neg[1][2], 1e-9, "Q26 at %v", theta)
		assert.True(t, pos.IsSymmetric(1e-12))
	}
}

func TestQBarInvariants(t *testing.T) {
	// U1-type invariant: Q̄11 + Q̄22 + 2Q̄12 is independent of the angle.
	q := mustLamina(t, as4, 0).Q()
	want := q[0][0] + q[1][1] + 2*q[0][1]
	for _, theta := range []float64{15, 30, 45, 60, 75, 120} {
		qb := mustLamina(t, as4, theta).QBar()
		assert.InDelta(t, want, qb[0][0]+qb[1][1]+2*qb[0][1], 1e-9, "theta %v", theta)
	}
}

func TestCompliance(t *testing.T) {
	l := mustLamina(t, as4, 30)
	s := l.Compliance()
	assert.InDelta(t, 1/as4.E1, s[0][0], 1e-15)
	assert.InDelta(t, -as4.Nu12/as4.E1, s[0][1], 1e-15)
	assert.InDelta(t, 1/as4.G12, s[2][2], 1e-15)
	assert.Equal(t, mustLamina(t, as4, 0).Compliance(), s)

	// S·Q is the identity in material axes.
	q := l.Q()
	for j := 0; j < 3; j++ {
		col := s.MulVec(matrix.Vec3{q[0][j], q[1][j], q[2][j]})
		for i := 0; i < 3; i++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, col[i], 1e-12)
		}
	}
}

func TestStressToMaterial(t *testing.T) {
	l := mustLamina(t, as4, 45)
	got := l.StressToMaterial(matrix.Vec3{0, 0, 10})
	assert.InDelta(t, 10, got[0], 1e-12)
	assert.InDelta(t, -10, got[1], 1e-12)
	assert.InDelta(t, 0, got[2], 1e-12)

	l0 := mustLamina(t, as4, 0)
	assert.Equal(t, matrix.Vec3{1, 2, 3}, l0.StressToMaterial(matrix.Vec3{1, 2, 3}))
}

func TestInvalidMaterial(t *testing.T) {
	for name, m := range map[string]Material{
		"zero E1":      {E1: 0, E2: 10, G12: 5, Nu12: 0.3},
		"negative E2":  {E1: 100, E2: -1, G12: 5, Nu12: 0.3},
		"zero G12":     {E1: 100, E2: 10, G12: 0, Nu12: 0.3},
		"nu12 zero":    {E1: 100, E2: 10, G12: 5, Nu12: 0},
		"nu12 one":     {E1: 100, E2: 10, G12: 5, Nu12: 1},
		"poisson prod": {E1: 10, E2: 100, G12: 5, Nu12: 0.5},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(m, 0.1, 0)
			require.ErrorIs(t, err, ErrInvalidMaterial)
		})
	}

	_, err := New(as4, 0, 0)
	require.ErrorIs(t, err, ErrInvalidMaterial)
}

type fakePresets map[string]Material

func (f fakePresets) Lookup(name string) (Material, error) {
	m, ok := f[name]
	if !ok {
		return Material{}, ErrUnknownPreset
	}
	return m, nil
}

func TestHandlerCalc(t *testing.T) {
	h := &Handler{Presets: fakePresets{"as4": as4}}

	body, _ := json.Marshal(Input{MaterialInput: MaterialInput{Preset: "as4"}, ThicknessMM: 0.125, ThetaDeg: 45})
	rec := httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/tools/lamina/calc", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, as4, res.Material)
	assert.InDelta(t, res.QBar[0][0], res.QBar[1][1], 1e-9)

	body, _ = json.Marshal(Input{MaterialInput: MaterialInput{Preset: "missing"}, ThicknessMM: 0.125})
	rec = httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/tools/lamina/calc", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
