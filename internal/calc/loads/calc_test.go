package loads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Layup/internal/calc/matrix"
)

func TestFromMap(t *testing.T) {
	v, err := FromMap(map[string]float64{"Nx": 1000, "ny": 1000, "MY": 50, "Mxy": 50})
	require.NoError(t, err)
	assert.Equal(t, matrix.Vec6{1000, 1000, 0, 0, 50, 50}, v)

	_, err = FromMap(map[string]float64{"Qx": 1})
	require.ErrorIs(t, err, ErrUnknownComponent)
}

func TestToMapRoundTrip(t *testing.T) {
	v := matrix.Vec6{1, 2, 3, 4, 5, 6}
	back, err := FromMap(ToMap(v))
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestCombine(t *testing.T) {
	total, res, err := Combine(Input{Cases: []Case{
		{Name: "dead", Factor: 1.35, Loads: map[string]float64{"Nx": 100}},
		{Name: "live", Factor: 1.5, Loads: map[string]float64{"Nx": 10, "Mx": 2}},
		{Name: "wind", Loads: map[string]float64{"Nxy": 7}},
	}})
	require.NoError(t, err)
	assert.InDelta(t, 150, total[0], 1e-12)
	assert.InDelta(t, 7, total[2], 0)
	assert.InDelta(t, 3, total[3], 1e-12)
	assert.Equal(t, "1.35*dead + 1.5*live + 1*wind", res.ComboName)

	_, _, err = Combine(Input{})
	require.Error(t, err)

	_, _, err = Combine(Input{Cases: []Case{{Name: "bad", Loads: map[string]float64{"T": 1}}}})
	require.ErrorIs(t, err, ErrUnknownComponent)
}
