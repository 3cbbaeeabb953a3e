// Command layup runs the laminate calculators from the terminal.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/materials"
)

// options are the flags shared by every laminate command.
type options struct {
	jsonOut bool

	preset            string
	e1, e2, g12, nu12 float64
	layup             string
	thickness         float64
	plyThickness      []float64

	loads map[string]string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	table := materials.New(nil)

	root := &cobra.Command{
		Use:   "layup",
		Short: "Classical lamination theory for fibre composites",
		Long: `Layup computes lamina and laminate stiffness, strains and ply
stresses under classical lamination theory.

Moduli are in GPa and thicknesses in mm. Materials come either from a
preset (--material) or from --e1 --e2 --g12 --nu12.

Stacking sequences use compact notation:
  [0/45/-45/90]s   eight plies, mirrored
  [0/90]           two plies`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&o.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newPresetsCmd(o, table),
		newMicroCmd(o),
		newLaminaCmd(o, table),
		newABDCmd(o, table),
		newSolveCmd(o, table),
		newStressCmd(o, table),
		newSweepCmd(o, table),
		newReportCmd(o, table),
		newBatchCmd(table),
	)
	return root
}

func addMaterialFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVarP(&o.preset, "material", "m", "", "material preset name")
	f.Float64Var(&o.e1, "e1", 0, "longitudinal modulus E1, GPa")
	f.Float64Var(&o.e2, "e2", 0, "transverse modulus E2, GPa")
	f.Float64Var(&o.g12, "g12", 0, "in-plane shear modulus G12, GPa")
	f.Float64Var(&o.nu12, "nu12", 0, "major Poisson's ratio")
}

func addLaminateFlags(cmd *cobra.Command, o *options) {
	addMaterialFlags(cmd, o)
	f := cmd.Flags()
	f.StringVarP(&o.layup, "layup", "l", "", "stacking sequence, e.g. [0/90]s")
	f.Float64Var(&o.thickness, "t", 0.125, "ply thickness, mm")
	f.Float64SliceVar(&o.plyThickness, "ply-t", nil, "per-ply thicknesses, mm (overrides --t)")
	cmd.MarkFlagRequired("layup")
}

func addLoadFlags(cmd *cobra.Command, o *options) {
	cmd.Flags().StringToStringVar(&o.loads, "load", nil,
		"force and moment resultants, e.g. nx=100,mx=5")
}

func (o *options) materialInput() lamina.MaterialInput {
	if o.preset != "" {
		return lamina.MaterialInput{Preset: o.preset}
	}
	return lamina.MaterialInput{Material: &lamina.Material{E1: o.e1, E2: o.e2, G12: o.g12, Nu12: o.nu12}}
}

func (o *options) laminateInput() laminate.Input {
	return laminate.Input{
		MaterialInput:  o.materialInput(),
		Layup:          o.layup,
		ThicknessMM:    o.thickness,
		PlyThicknessMM: o.plyThickness,
	}
}

func (o *options) loadMap() (map[string]float64, error) {
	out := make(map[string]float64, len(o.loads))
	for k, v := range o.loads {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("load %s: %q is not a number", k, v)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = f
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
