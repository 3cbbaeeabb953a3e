// Package report renders a laminate analysis as a PDF.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"Layup/internal/calc/chart"
	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/matrix"
	"Layup/internal/calc/sweep"
)

type Input struct {
	Project string `json:"project"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Notes   string `json:"notes"`

	laminate.Input
	Loads map[string]float64 `json:"loads,omitempty"`
	// Chart adds the [A]-versus-rotation plot.
	Chart bool `json:"chart,omitempty"`
}

// Write builds the laminate described by in and writes the report to w.
// Nothing is written when the laminate or loads are invalid.
func Write(ctx context.Context, w io.Writer, in Input, p lamina.Presets, now time.Time) error {
	if in.Title == "" {
		in.Title = "Laminate Analysis Report"
	}
	l, err := in.Build(p)
	if err != nil {
		return err
	}
	sum := laminate.Summarize(l)

	var eps, kappa matrix.Vec3
	var prof []laminate.PlyStresses
	if len(in.Loads) > 0 {
		if eps, kappa, err = l.SolveMap(in.Loads); err != nil {
			return err
		}
		prof = l.StressProfile(eps, kappa)
	}

	var png bytes.Buffer
	if in.Chart {
		xs, _ := sweep.Steps(0, 360, 5)
		pts, err := sweep.Runner{}.Rotation(ctx, l.Material(), l.Angles(), in.Thickness(), xs)
		if err != nil {
			return err
		}
		if err := chart.StiffnessPNG(&png, pts, "[A] vs. global rotation", "Rotation angle (deg)"); err != nil {
			return err
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, in.Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Project: %s", in.Project))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Author: %s", in.Author))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", now.Format("2006-01-02")))
	pdf.Ln(10)

	section(pdf, "Laminate")
	m := sum.Material
	line(pdf, fmt.Sprintf("Material: E1 = %g GPa, E2 = %g GPa, G12 = %g GPa, nu12 = %g, nu21 = %.4f", m.E1, m.E2, m.G12, m.Nu12, m.Nu21()))
	line(pdf, fmt.Sprintf("Stacking: %s (%d plies, h = %.4g mm)", sum.Notation, sum.NPlies, sum.ThicknessMM))
	line(pdf, fmt.Sprintf("Symmetric: %s   Balanced: %s", yesNo(sum.Symmetric), yesNo(sum.Balanced)))
	line(pdf, "z (mm): "+joinFloats(sum.ZCoords, "%.4g"))
	pdf.Ln(2)

	section(pdf, "Stiffness")
	matrixTable(pdf, "[A] (GPa.mm)", sum.A)
	matrixTable(pdf, "[B] (GPa.mm2)", sum.B)
	matrixTable(pdf, "[D] (GPa.mm3)", sum.D)

	if sum.Properties != nil {
		pr := sum.Properties
		section(pdf, "Effective in-plane properties")
		line(pdf, fmt.Sprintf("Ex = %.4g GPa, Ey = %.4g GPa, Gxy = %.4g GPa, nu_xy = %.4g, nu_yx = %.4g", pr.Ex, pr.Ey, pr.Gxy, pr.NuXY, pr.NuYX))
		if !sum.Symmetric {
			line(pdf, "Laminate is not symmetric; extension-bending coupling is ignored in these values.")
		}
		pdf.Ln(2)
	}

	if prof != nil {
		section(pdf, "Response")
		line(pdf, "Mid-plane strains: "+joinFloats(eps[:], "%.4e"))
		line(pdf, "Curvatures (1/mm): "+joinFloats(kappa[:], "%.4e"))
		pdf.Ln(2)
		stressTable(pdf, prof)
	}

	if in.Chart {
		pdf.AddPage()
		section(pdf, "Rotation study")
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("rotation", opt, &png)
		pdf.ImageOptions("rotation", 10, pdf.GetY(), 190, 0, false, opt, 0, "")
	}

	if in.Notes != "" {
		pdf.Ln(4)
		section(pdf, "Notes")
		pdf.MultiCell(0, 6, in.Notes, "", "L", false)
	}
	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func line(pdf *gofpdf.Fpdf, s string) {
	pdf.Cell(0, 5, s)
	pdf.Ln(5)
}

func matrixTable(pdf *gofpdf.Fpdf, label string, m matrix.Mat3) {
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 5, label)
	pdf.Ln(5)
	pdf.SetFont("Courier", "", 9)
	for _, row := range m {
		for _, v := range row {
			pdf.CellFormat(40, 5, fmt.Sprintf("%12.5g", v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(5)
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.Ln(2)
}

var stressHeader = []string{"Ply", "Angle", "z mid", "sx", "sy", "txy", "s1", "s2", "t12"}

func stressTable(pdf *gofpdf.Fpdf, prof []laminate.PlyStresses) {
	pdf.SetFont("Helvetica", "B", 9)
	for _, h := range stressHeader {
		pdf.CellFormat(21, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(6)
	pdf.SetFont("Courier", "", 8)
	for _, ps := range prof {
		mid := ps.Mid
		cells := []string{
			fmt.Sprintf("%d", ps.Index+1),
			fmt.Sprintf("%g", ps.Angle),
			fmt.Sprintf("%.4g", mid.Z),
		}
		for _, v := range append(mid.Global[:], mid.Local[:]...) {
			cells = append(cells, fmt.Sprintf("%.4g", v))
		}
		for _, c := range cells {
			pdf.CellFormat(21, 5, c, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(5)
	}
	pdf.SetFont("Helvetica", "", 10)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinFloats(vs []float64, format string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf(format, v)
	}
	return strings.Join(parts, ", ")
}
