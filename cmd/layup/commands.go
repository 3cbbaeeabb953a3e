package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/matrix"
	"Layup/internal/calc/micromech"
	"Layup/internal/materials"
)

func newPresetsCmd(o *options, table *materials.Table) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in material presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), table.List())
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tE1\tE2\tG12\tNU12")
			for _, e := range table.List() {
				m := e.Material
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\n", e.Name, m.E1, m.E2, m.G12, m.Nu12)
			}
			return tw.Flush()
		},
	}
}

func newMicroCmd(o *options) *cobra.Command {
	var in micromech.Input
	var method string
	cmd := &cobra.Command{
		Use:   "micro",
		Short: "Lamina constants from fibre and matrix properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Method = micromech.Method(method)
			res, err := micromech.Calculate(in)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Vf\t%.4f\n", res.Vf)
			fmt.Fprintf(tw, "E1\t%.4f GPa\n", res.E1)
			fmt.Fprintf(tw, "E2 (Halpin-Tsai)\t%.4f GPa\n", res.E2HalpinTsai)
			fmt.Fprintf(tw, "E2 (inverse ROM)\t%.4f GPa\n", res.E2InverseROM)
			fmt.Fprintf(tw, "G12 (Halpin-Tsai)\t%.4f GPa\n", res.G12HalpinTsai)
			fmt.Fprintf(tw, "nu12\t%.4f\n", res.Nu12)
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.EfGPa, "ef", 0, "fibre modulus, GPa")
	f.Float64Var(&in.NuF, "nuf", 0, "fibre Poisson's ratio")
	f.Float64Var(&in.EmGPa, "em", 0, "matrix modulus, GPa")
	f.Float64Var(&in.NuM, "num", 0, "matrix Poisson's ratio")
	f.Float64Var(&in.Vf, "vf", 0, "fibre volume fraction")
	f.StringVar(&method, "method", string(micromech.MethodHalpinTsai), "halpin-tsai or inverse-rom")
	cmd.MarkFlagRequired("ef")
	cmd.MarkFlagRequired("em")
	return cmd
}

func newLaminaCmd(o *options, table *materials.Table) *cobra.Command {
	var theta float64
	cmd := &cobra.Command{
		Use:   "lamina",
		Short: "Reduced and transformed stiffness of one ply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := lamina.Calculate(lamina.Input{
				MaterialInput: o.materialInput(),
				ThicknessMM:   o.thickness,
				ThetaDeg:      theta,
			}, table)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			printMat3(w, "Q", res.Q)
			printMat3(w, fmt.Sprintf("Qbar at %g deg", theta), res.QBar)
			return nil
		},
	}
	addMaterialFlags(cmd, o)
	cmd.Flags().Float64Var(&theta, "theta", 0, "ply angle, degrees")
	cmd.Flags().Float64Var(&o.thickness, "t", 0.125, "ply thickness, mm")
	return cmd
}

func newABDCmd(o *options, table *materials.Table) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abd",
		Short: "A, B and D matrices of a laminate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := laminate.Calculate(o.laminateInput(), table)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %d plies, h = %g mm\n", res.Notation, res.NPlies, res.ThicknessMM)
			fmt.Fprintf(w, "symmetric: %t  balanced: %t\n\n", res.Symmetric, res.Balanced)
			printMat3(w, "A (GPa*mm)", res.A)
			printMat3(w, "B (GPa*mm^2)", res.B)
			printMat3(w, "D (GPa*mm^3)", res.D)
			if p := res.Properties; p != nil {
				fmt.Fprintf(w, "Ex = %.4f  Ey = %.4f  Gxy = %.4f GPa  nu_xy = %.4f  nu_yx = %.4f\n",
					p.Ex, p.Ey, p.Gxy, p.NuXY, p.NuYX)
			}
			return nil
		},
	}
	addLaminateFlags(cmd, o)
	return cmd
}

func newSolveCmd(o *options, table *materials.Table) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Mid-plane strains, curvatures and ply stresses under load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loads, err := o.loadMap()
			if err != nil {
				return err
			}
			res, err := laminate.SolveCalculate(laminate.SolveInput{Input: o.laminateInput(), Loads: loads}, table)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "strains    eps_x %.6g  eps_y %.6g  gamma_xy %.6g\n", res.Strains[0], res.Strains[1], res.Strains[2])
			fmt.Fprintf(w, "curvatures k_x %.6g  k_y %.6g  k_xy %.6g\n\n", res.Curvatures[0], res.Curvatures[1], res.Curvatures[2])
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "PLY\tANGLE\tZ\tSIGMA_1\tSIGMA_2\tTAU_12\t")
			for _, ps := range res.Profile {
				for _, s := range []laminate.SurfaceStress{ps.Bottom, ps.Top} {
					fmt.Fprintf(tw, "%d\t%g\t%.4f\t%.4g\t%.4g\t%.4g\t\n",
						ps.Index, ps.Angle, s.Z, s.Local[0], s.Local[1], s.Local[2])
				}
			}
			return tw.Flush()
		},
	}
	addLaminateFlags(cmd, o)
	addLoadFlags(cmd, o)
	return cmd
}

func newStressCmd(o *options, table *materials.Table) *cobra.Command {
	var ply int
	var surface string
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Stress at one ply surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loads, err := o.loadMap()
			if err != nil {
				return err
			}
			res, err := laminate.StressCalculate(laminate.StressInput{
				Input:   o.laminateInput(),
				Loads:   loads,
				Ply:     ply,
				Surface: surface,
			}, table)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ply %d (%g deg), %s surface, z = %.4f mm\n", res.Ply, res.Angle, res.Surface, res.Z)
			fmt.Fprintf(w, "global  sigma_x %.4g  sigma_y %.4g  tau_xy %.4g\n", res.Global[0], res.Global[1], res.Global[2])
			fmt.Fprintf(w, "local   sigma_1 %.4g  sigma_2 %.4g  tau_12 %.4g\n", res.Local[0], res.Local[1], res.Local[2])
			return nil
		},
	}
	addLaminateFlags(cmd, o)
	addLoadFlags(cmd, o)
	cmd.Flags().IntVar(&ply, "ply", 0, "ply index, 0 is the bottom ply")
	cmd.Flags().StringVar(&surface, "surface", "mid", "bottom, mid or top")
	return cmd
}

func printMat3(w io.Writer, label string, m matrix.Mat3) {
	fmt.Fprintln(w, label)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, row := range m {
		fmt.Fprintf(tw, "%.4f\t%.4f\t%.4f\t\n", row[0], row[1], row[2])
	}
	tw.Flush()
	fmt.Fprintln(w)
}
