package importer

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"Layup/internal/calc/batch"
	"Layup/internal/calc/lamina"
)

var as4 = lamina.Material{E1: 142, E2: 10.3, G12: 7.2, Nu12: 0.27}

type onePreset struct{}

func (onePreset) Lookup(name string) (lamina.Material, error) {
	if name != "AS4/3501-6" {
		return lamina.Material{}, lamina.ErrUnknownPreset
	}
	return as4, nil
}

func sheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	name := f.GetSheetName(0)
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, axis, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

var header = []interface{}{"name", "preset", "layup", "thickness_mm", "Nx", "Ny", "Nxy", "Mx", "My", "Mxy", "e1", "e2", "g12", "nu12"}

func TestParse(t *testing.T) {
	buf := sheet(t, [][]interface{}{
		header,
		{"qi", "AS4/3501-6", "[0/45/-45/90]_s", 0.125, 100},
		{"", "", "[0/90]s", "0,2", "", "", "", 1, "", "", 181, 10.3, 7.17, 0.28},
		{"bad t", "AS4/3501-6", "[0/90]s", "thick"},
		{},
		{"half material", "", "0", 0.1, "", "", "", "", "", "", 100, 8},
		{"short", "AS4/3501-6"},
	})

	scs, bad, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, scs, 2)

	assert.Equal(t, "qi", scs[0].Name)
	assert.Equal(t, "AS4/3501-6", scs[0].Preset)
	assert.Equal(t, 0.125, scs[0].ThicknessMM)
	assert.Equal(t, map[string]float64{"Nx": 100}, scs[0].Loads)
	assert.Nil(t, scs[0].Material)

	assert.Equal(t, "row 3", scs[1].Name)
	assert.Equal(t, 0.2, scs[1].ThicknessMM)
	assert.Equal(t, map[string]float64{"Mx": 1}, scs[1].Loads)
	require.NotNil(t, scs[1].Material)
	assert.Equal(t, 181.0, scs[1].Material.E1)

	require.Len(t, bad, 3)
	assert.Equal(t, 4, bad[0].Row)
	assert.Contains(t, bad[0].Err, "thickness_mm")
	assert.Equal(t, 6, bad[1].Row)
	assert.Contains(t, bad[1].Err, "material")
	assert.Equal(t, 7, bad[2].Row)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, _, err := Parse(bytes.NewBufferString("not a spreadsheet"))
	assert.Error(t, err)

	_, _, err = Parse(sheet(t, [][]interface{}{header}))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	res, err := batch.Run(batch.Input{Scenarios: []batch.Scenario{
		scenarioFor("ok", "[0/90]s", map[string]float64{"Nx": 10}),
		scenarioFor("broken", "0/x", nil),
	}}, onePreset{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "#", rows[0][0])
	assert.Equal(t, "A11", rows[0][7])
	assert.Equal(t, "ok", rows[1][1])
	assert.Equal(t, "[0/90/90/0]", rows[1][2])
	assert.Equal(t, "broken", rows[2][1])
	assert.Contains(t, rows[2][len(rows[2])-1], "malformed")
}

func scenarioFor(name, layup string, l map[string]float64) batch.Scenario {
	sc := batch.Scenario{Name: name, Loads: l}
	sc.Preset = "AS4/3501-6"
	sc.Layup = layup
	sc.ThicknessMM = 0.125
	return sc
}

func upload(t *testing.T, data io.Reader) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "scenarios.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlerImport(t *testing.T) {
	h := &Handler{Presets: onePreset{}}
	buf := sheet(t, [][]interface{}{
		header,
		{"qi", "AS4/3501-6", "[0/45/-45/90]_s", 0.125, 100},
		{"unknown", "T300", "[0/90]s", 0.125},
	})
	rec := httptest.NewRecorder()
	h.Import(rec, upload(t, buf))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 1, res.Results.Succeeded)
	assert.Equal(t, 1, res.Results.Failed)

	rec = httptest.NewRecorder()
	h.Import(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Import(rec, upload(t, bytes.NewBufferString("plain text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerExport(t *testing.T) {
	h := &Handler{Presets: onePreset{}}
	body := `{"scenarios":[{"name":"a","preset":"AS4/3501-6","layup":"[0/90]s","thickness_mm":0.125}]}`
	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "layup-results.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
