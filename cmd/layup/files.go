package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"Layup/internal/calc/batch"
	"Layup/internal/calc/chart"
	"Layup/internal/calc/importer"
	"Layup/internal/calc/report"
	"Layup/internal/calc/sweep"
	"Layup/internal/materials"
)

func newSweepCmd(o *options, table *materials.Table) *cobra.Command {
	var rg sweep.Range
	var png string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "[A] and [D] while the whole laminate is rotated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner := sweep.Runner{Workers: runtime.GOMAXPROCS(0)}
			res, err := runner.RotationCalculate(cmd.Context(), sweep.RotationInput{Input: o.laminateInput(), Range: rg}, table)
			if err != nil {
				return err
			}
			if png != "" {
				if err := writeFile(png, func(w *bufio.Writer) error {
					return chart.StiffnessPNG(w, res.Points, "[A] vs. global rotation", "Rotation angle (deg)")
				}); err != nil {
					return err
				}
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "ROT\tA11\tA22\tA12\tA66\tA16\tA26\t")
			for _, p := range res.Points {
				if p.Err != "" {
					fmt.Fprintf(tw, "%g\t%s\t\t\t\t\t\t\n", p.X, p.Err)
					continue
				}
				a := p.A
				fmt.Fprintf(tw, "%g\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
					p.X, a[0][0], a[1][1], a[0][1], a[2][2], a[0][2], a[1][2])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			s := res.Summary
			fmt.Fprintf(cmd.OutOrStdout(), "\nA11 range %.3f%%, max |A16| %.4g, max |A26| %.4g, quasi-isotropic: %t\n",
				s.RangePercent, s.MaxAbsA16, s.MaxAbsA26, s.QuasiIsotropic)
			return nil
		},
	}
	addLaminateFlags(cmd, o)
	f := cmd.Flags()
	f.Float64Var(&rg.From, "from", 0, "first rotation, degrees")
	f.Float64Var(&rg.To, "to", 0, "last rotation, degrees")
	f.Float64Var(&rg.Step, "step", 0, "rotation step, degrees (0..360 by 5 when unset)")
	f.StringVar(&png, "png", "", "also write a PNG chart to this file")
	return cmd
}

func newReportCmd(o *options, table *materials.Table) *cobra.Command {
	var in report.Input
	var out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "PDF report of a laminate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loads, err := o.loadMap()
			if err != nil {
				return err
			}
			in.Input = o.laminateInput()
			in.Loads = loads
			if err := writeFile(out, func(w *bufio.Writer) error {
				return report.Write(cmd.Context(), w, in, table, time.Now())
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
			return nil
		},
	}
	addLaminateFlags(cmd, o)
	addLoadFlags(cmd, o)
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "laminate.pdf", "output file")
	f.StringVar(&in.Project, "project", "", "project name")
	f.StringVar(&in.Author, "author", "", "author")
	f.StringVar(&in.Title, "title", "", "report title")
	f.StringVar(&in.Notes, "notes", "", "free text appended to the report")
	f.BoolVar(&in.Chart, "chart", false, "include the [A] rotation chart")
	return cmd
}

func newBatchCmd(table *materials.Table) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "batch <scenarios.xlsx>",
		Short: "Run every scenario row of a spreadsheet",
		Long: `Batch reads scenarios from the first sheet of an xlsx workbook, one per
row, with the header

  name | preset | layup | thickness_mm | Nx | Ny | Nxy | Mx | My | Mxy | e1 | e2 | g12 | nu12

and writes strains, curvatures and peak ply stresses to --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			scenarios, rowErrs, err := importer.Parse(f)
			if err != nil {
				return err
			}
			for _, re := range rowErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "row %d skipped: %v\n", re.Row, re.Err)
			}
			res, err := batch.Run(batch.Input{Scenarios: scenarios}, table)
			if err != nil {
				return err
			}
			if err := writeFile(out, func(w *bufio.Writer) error {
				return importer.Export(w, res)
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "layup-results.xlsx", "output workbook")
	return cmd
}

// writeFile removes a partially written file when fn fails.
func writeFile(path string, fn func(w *bufio.Writer) error) (err error) {
	if path == "" {
		return errors.New("no output file")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return err
	}
	return w.Flush()
}
