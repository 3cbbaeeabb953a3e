package sweep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/matrix"
)

var as4 = lamina.Material{E1: 142, E2: 10.3, G12: 7.2, Nu12: 0.27}

func TestNormalize(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		180:  180,
		-180: 180,
		190:  -170,
		360:  0,
		-45:  -45,
		405:  45,
		540:  180,
		-270: 90,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%v)", in)
	}
}

func TestSteps(t *testing.T) {
	xs, err := Steps(0, 360, 5)
	require.NoError(t, err)
	assert.Len(t, xs, 73)
	assert.Equal(t, 0.0, xs[0])
	assert.Equal(t, 360.0, xs[72])

	xs, err = Steps(-90, 90, 45)
	require.NoError(t, err)
	assert.Equal(t, []float64{-90, -45, 0, 45, 90}, xs)

	xs, err = Steps(0, 1, 0.3)
	require.NoError(t, err)
	assert.Len(t, xs, 4)

	for _, bad := range [][3]float64{{0, 10, 0}, {0, 10, -1}, {10, 0, 1}} {
		_, err := Steps(bad[0], bad[1], bad[2])
		assert.ErrorIs(t, err, ErrNoPoints, "%v", bad)
	}
}

func TestStepsLimit(t *testing.T) {
	xs, err := Steps(0, MaxPoints-1, 1)
	require.NoError(t, err)
	assert.Len(t, xs, MaxPoints)

	for _, bad := range [][3]float64{
		{0, MaxPoints, 1},
		{0, 1e9, 1},
		{0, 1e300, 1e-300},
		{0, math.Inf(1), 1},
		{math.Inf(-1), 0, 1},
	} {
		_, err := Steps(bad[0], bad[1], bad[2])
		assert.ErrorIs(t, err, ErrNoPoints, "%v", bad)
	}

	_, err = Range{From: 0, To: 1e300, Step: 1e-300}.Expand(0, 360, 5)
	assert.ErrorIs(t, err, ErrNoPoints)
	_, err = Range{Values: make([]float64, MaxPoints+1)}.Expand(0, 360, 5)
	assert.ErrorIs(t, err, ErrNoPoints)
	_, err = Runner{}.Rotation(context.Background(), as4, []float64{0}, laminate.Uniform(0.125), make([]float64, MaxPoints+1))
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestRotationQuasiIsotropic(t *testing.T) {
	xs, err := Steps(0, 360, 5)
	require.NoError(t, err)

	for _, base := range [][]float64{{0, 60, -60}, {-45, 0, 45, 90}} {
		pts, err := Runner{Workers: 4}.Rotation(context.Background(), as4, base, laminate.Uniform(0.125), xs)
		require.NoError(t, err)
		require.Len(t, pts, len(xs))
		for i, p := range pts {
			assert.Equal(t, xs[i], p.X, "points must stay in input order")
			assert.Empty(t, p.Err)
		}
		s := QuasiIsotropy(pts)
		assert.True(t, s.QuasiIsotropic, "%v: %+v", base, s)
		assert.Less(t, s.RangePercent, 1.0)
	}
}

func TestQuasiIsotropyCouplingLimit(t *testing.T) {
	flat := func(a16 float64) []Point {
		var a matrix.Mat3
		a[0][0], a[1][1], a[2][2] = 20, 20, 7
		a[0][2], a[2][0] = a16, a16
		return []Point{{X: 0, A: a}, {X: 90, A: a}}
	}
	// 0.01 N/mm is 1e-5 kN/mm.
	assert.True(t, QuasiIsotropy(flat(5e-6)).QuasiIsotropic)
	assert.False(t, QuasiIsotropy(flat(5e-3)).QuasiIsotropic)
}

func TestRotationCrossPlyIsNotQuasiIsotropic(t *testing.T) {
	xs, err := Steps(0, 90, 15)
	require.NoError(t, err)
	pts, err := Runner{}.Rotation(context.Background(), as4, []float64{0, 90}, laminate.Uniform(0.125), xs)
	require.NoError(t, err)

	s := QuasiIsotropy(pts)
	assert.False(t, s.QuasiIsotropic)
	assert.Greater(t, s.RangePercent, 1.0)
	assert.Greater(t, s.A11Max, s.A11Min)
}

func TestRotationMatchesDirectBuild(t *testing.T) {
	base := []float64{0, 30, -45}
	pts, err := Runner{Workers: 2}.Rotation(context.Background(), as4, base, laminate.Uniform(0.2), []float64{25, 170})
	require.NoError(t, err)

	want, err := laminate.New(as4, laminate.Angles{25, 55, -20}, laminate.Uniform(0.2))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.A()[i][j], pts[0].A[i][j], 1e-9)
			assert.InDelta(t, want.D()[i][j], pts[0].D[i][j], 1e-9)
		}
	}
}

func TestPlyAngle(t *testing.T) {
	base := []float64{0, 0, 0, 0}
	pts, err := Runner{}.PlyAngle(context.Background(), as4, base, laminate.Uniform(0.125), 1, []float64{0, 90})
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Greater(t, pts[0].A[0][0], pts[1].A[0][0])
	assert.Less(t, pts[0].A[1][1], pts[1].A[1][1])
	assert.Equal(t, []float64{0, 0, 0, 0}, base, "base must not be modified")

	_, err = Runner{}.PlyAngle(context.Background(), as4, base, laminate.Uniform(0.125), 4, []float64{0})
	assert.ErrorIs(t, err, ErrPlyOutOfRange)
}

func TestProperty(t *testing.T) {
	pts, err := Runner{}.Property(context.Background(), as4, []float64{0}, laminate.Uniform(1), "E1", []float64{100, -5, 200})
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Empty(t, pts[0].Err)
	assert.Contains(t, pts[1].Err, "invalid material")
	assert.Empty(t, pts[2].Err)
	assert.Greater(t, pts[2].A[0][0], pts[0].A[0][0])

	_, err = Runner{}.Property(context.Background(), as4, []float64{0}, laminate.Uniform(1), "density", []float64{1})
	assert.ErrorIs(t, err, ErrUnknownProp)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	xs, _ := Steps(0, 360, 1)
	_, err := Runner{Workers: 1}.Rotation(ctx, as4, []float64{0, 90}, laminate.Uniform(0.125), xs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	_, err := Runner{}.Rotation(context.Background(), as4, []float64{0}, laminate.Uniform(0.125), nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestQuasiIsotropySkipsErrors(t *testing.T) {
	assert.Equal(t, Summary{}, QuasiIsotropy([]Point{{X: 1, Err: "bad"}}))
}

type fakePresets map[string]lamina.Material

func (f fakePresets) Lookup(name string) (lamina.Material, error) {
	m, ok := f[name]
	if !ok {
		return lamina.Material{}, fmt.Errorf("%w: %q", lamina.ErrUnknownPreset, name)
	}
	return m, nil
}

func TestHandlerRotation(t *testing.T) {
	h := &Handler{Presets: fakePresets{"AS4/3501-6": as4}, Runner: Runner{Workers: 2}}
	body := `{"preset":"AS4/3501-6","layup":"[0/60/-60]","thickness_mm":0.125}`
	rec := httptest.NewRecorder()
	h.Rotation(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res RotationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Points, 73)
	assert.True(t, res.Summary.QuasiIsotropic)
	assert.Equal(t, []float64{0, 60, -60}, res.Base)

	rec = httptest.NewRecorder()
	h.Rotation(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"preset":"nope","layup":"0"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	huge := `{"preset":"AS4/3501-6","layup":"[0]","thickness_mm":0.125,"from":0,"to":1e300,"step":1e-300}`
	h.Rotation(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(huge)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPly(t *testing.T) {
	h := &Handler{Presets: fakePresets{"AS4/3501-6": as4}}
	body := `{"preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"ply":0,"from":-90,"to":90,"step":30}`
	rec := httptest.NewRecorder()
	h.Ply(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res PlyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Points, 7)

	body = `{"preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125,"property":"nu12","values":[0.2,0.3]}`
	rec = httptest.NewRecorder()
	h.Ply(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "nu12", res.Property)
	assert.Len(t, res.Points, 2)

	rec = httptest.NewRecorder()
	h.Ply(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
