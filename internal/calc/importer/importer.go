// Package importer reads batch scenarios from an xlsx sheet and writes batch
// results back out as xlsx.
//
// Sheet layout, first row is a header and is skipped:
//
//	name | preset | layup | thickness_mm | Nx | Ny | Nxy | Mx | My | Mxy | e1 | e2 | g12 | nu12
//
// Load columns may be blank. When e1..nu12 are all present they are used as
// an inline material and preset may be blank.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"Layup/internal/calc/batch"
	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/loads"
)

const (
	colName = iota
	colPreset
	colLayup
	colThickness
	colLoads
	colMaterial = colLoads + len(loads.Names)
	minCols     = colThickness + 1
)

// RowError reports a sheet row that could not be turned into a scenario.
// Row is 1-based as shown in spreadsheet software.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// Parse reads the first sheet. Rows that fail to parse are returned as
// RowErrors and do not stop the import.
func Parse(r io.Reader) ([]batch.Scenario, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("importer: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("importer: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("importer: empty sheet")
	}

	var out []batch.Scenario
	var bad []RowError
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		sc, err := parseRow(row)
		if err != nil {
			bad = append(bad, RowError{Row: i + 1, Err: err.Error()})
			continue
		}
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("row %d", i+1)
		}
		out = append(out, sc)
	}
	return out, bad, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseRow(row []string) (batch.Scenario, error) {
	if len(row) < minCols {
		return batch.Scenario{}, fmt.Errorf("need at least %d columns, got %d", minCols, len(row))
	}
	t, err := toFloat(cell(row, colThickness))
	if err != nil {
		return batch.Scenario{}, fmt.Errorf("thickness_mm: %w", err)
	}
	sc := batch.Scenario{
		Name: cell(row, colName),
		Input: laminate.Input{
			MaterialInput: lamina.MaterialInput{Preset: cell(row, colPreset)},
			Layup:         cell(row, colLayup),
			ThicknessMM:   t,
		},
	}
	for k, name := range loads.Names {
		s := cell(row, colLoads+k)
		if s == "" {
			continue
		}
		v, err := toFloat(s)
		if err != nil {
			return batch.Scenario{}, fmt.Errorf("%s: %w", name, err)
		}
		if sc.Loads == nil {
			sc.Loads = make(map[string]float64, len(loads.Names))
		}
		sc.Loads[name] = v
	}

	var consts [4]float64
	present := 0
	for k := range consts {
		s := cell(row, colMaterial+k)
		if s == "" {
			continue
		}
		v, err := toFloat(s)
		if err != nil {
			return batch.Scenario{}, fmt.Errorf("material column %d: %w", k+1, err)
		}
		consts[k] = v
		present++
	}
	switch present {
	case 0:
	case len(consts):
		sc.Material = &lamina.Material{E1: consts[0], E2: consts[1], G12: consts[2], Nu12: consts[3]}
	default:
		return batch.Scenario{}, fmt.Errorf("material needs e1, e2, g12 and nu12")
	}
	return sc, nil
}

func toFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

var exportHeader = []interface{}{
	"#", "name", "layup", "plies", "h_mm", "symmetric", "balanced",
	"A11", "A22", "A12", "A66", "A16", "A26", "D11", "D22", "D66",
	"Ex", "Ey", "Gxy", "nu_xy",
	"eps_x", "eps_y", "gamma_xy", "kappa_x", "kappa_y", "kappa_xy",
	"max_s1", "max_s2", "max_t12", "error",
}

// Export writes one row per outcome to the sheet "Results".
func Export(w io.Writer, res batch.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	for i, o := range res.Outcomes {
		row := exportRow(o)
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("importer: %w", err)
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("importer: %w", err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func exportRow(o batch.Outcome) []interface{} {
	row := []interface{}{o.Index + 1, o.Name}
	if o.Laminate == nil {
		row = append(row, make([]interface{}, len(exportHeader)-3)...)
		return append(row, o.Error)
	}
	l := o.Laminate
	a, d := l.A, l.D
	row = append(row, l.Notation, l.NPlies, l.ThicknessMM, l.Symmetric, l.Balanced,
		a[0][0], a[1][1], a[0][1], a[2][2], a[0][2], a[1][2], d[0][0], d[1][1], d[2][2])
	if p := l.Properties; p != nil {
		row = append(row, p.Ex, p.Ey, p.Gxy, p.NuXY)
	} else {
		row = append(row, nil, nil, nil, nil)
	}
	if o.Strains != nil {
		e, k, m := o.Strains, o.Curvatures, o.MaxLocal
		row = append(row, e[0], e[1], e[2], k[0], k[1], k[2], m[0], m[1], m[2])
	} else {
		row = append(row, make([]interface{}, 9)...)
	}
	return append(row, o.Error)
}
