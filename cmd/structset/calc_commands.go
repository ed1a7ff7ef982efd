/*
 * calc_commands.go, part of structset.
 *
 * Copyright 2024 The structset authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmera/structset"
	"github.com/rmera/structset/calc"
	"github.com/rmera/structset/internal/logging"
	"github.com/rmera/structset/raw"
	v3 "github.com/rmera/structset/v3"
	"github.com/rmera/structset/workflow"
)

//readPrototype returns the first structure in an extended XYZ file.
func readPrototype(name string) (*structset.Structure, error) {
	s, err := structset.XYZFileRead(name)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("no structures in %s", name)
	}
	return s[0], nil
}

//siteSymbols expands the --symbols values ("Au:Pd") to one list per site of
//the prototype. A single value applies to every site.
func siteSymbols(values []string, sites int) ([][]string, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no chemical symbols given")
	}
	if len(values) != 1 && len(values) != sites {
		return nil, fmt.Errorf("got %d symbol lists for %d sites", len(values), sites)
	}
	parsed := make([][]string, len(values))
	for i, v := range values {
		for _, s := range strings.Split(v, ":") {
			s = strings.TrimSpace(s)
			if _, err := structset.AtomicNumber(s); err != nil {
				return nil, fmt.Errorf("site %d: unknown element %q", i, s)
			}
			parsed[i] = append(parsed[i], s)
		}
	}
	ret := make([][]string, sites)
	for i := range ret {
		if len(parsed) == 1 {
			ret[i] = parsed[0]
		} else {
			ret[i] = parsed[i]
		}
	}
	return ret, nil
}

//fractions parses element=fraction pairs.
func fractions(values map[string]string) (map[string]float64, error) {
	ret := make(map[string]float64, len(values))
	for k, v := range values {
		if _, err := structset.AtomicNumber(k); err != nil {
			return nil, fmt.Errorf("unknown element %q", k)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid fraction %q for %s: %w", v, k, err)
		}
		ret[k] = f
	}
	return ret, nil
}

func newEnumerateCommand(ctx *commandContext) *cobra.Command {
	var symbols []string
	var minSize, maxSize int
	var workdir string
	var store bool
	cmd := &cobra.Command{
		Use:   "enumerate <prototype.xyz> <raw-dir>",
		Short: "Enumerate the derivative structures of a prototype into a raw collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			proto, err := readPrototype(args[0])
			if err != nil {
				return err
			}
			sym, err := siteSymbols(symbols, proto.Len())
			if err != nil {
				return err
			}
			h := calc.NewEnumerateHandle()
			h.SetCommand(cfg.Programs.Genenum)
			h.SetWorkDir(workdir)
			h.SetLogger(logging.Logger)
			steps := []workflow.Step{workflow.EnumerateStep(h)}
			if store {
				st, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				steps = append(steps, workflow.StoreStep(st))
			}
			p := workflow.NewPipeline(steps...)
			p.SetLogger(logging.Logger)
			wc := &workflow.Context{Prototype: proto, ChemicalSymbols: sym, Sizes: calc.Sizes(minSize, maxSize)}
			if err := p.Run(cmd.Context(), wc); err != nil {
				return err
			}
			if err := raw.WriteDir(args[1], wc.Collection); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enumerated %d structures into %s\n", wc.Collection.Len(), args[1])
			if wc.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Stored as %s\n", wc.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "Allowed elements per site, as Au:Pd (one value for all sites)")
	cmd.Flags().IntVar(&minSize, "min", 1, "Smallest supercell size")
	cmd.Flags().IntVar(&maxSize, "max", 1, "Largest supercell size")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "", "Keep the program files in this directory")
	cmd.Flags().BoolVar(&store, "store", false, "Also store the collection in the provenance store")
	return cmd
}

func newSQSCommand(ctx *commandContext) *cobra.Command {
	var symbols []string
	var conc map[string]string
	var cutoffs []float64
	var workdir string
	P := calc.SQSParams{}
	P.SetDefaults()
	cmd := &cobra.Command{
		Use:   "sqs <prototype.xyz> <output.xyz>",
		Short: "Generate a special quasirandom structure from a prototype",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			proto, err := readPrototype(args[0])
			if err != nil {
				return err
			}
			if P.ChemicalSymbols, err = siteSymbols(symbols, proto.Len()); err != nil {
				return err
			}
			if P.TargetConcentrations, err = fractions(conc); err != nil {
				return err
			}
			P.Prototype = proto
			P.Cutoffs = cutoffs
			h := calc.NewSQSHandle()
			h.SetCommand(cfg.Programs.Gensqs)
			h.SetWorkDir(workdir)
			h.SetLogger(logging.Logger)
			S, cv, err := h.Generate(cmd.Context(), P)
			if err != nil {
				return err
			}
			if err := structset.XYZFileWrite(args[1], S); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s), cluster vector of length %d\n", args[1], S.Formula(), len(cv))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "Allowed elements per site, as Au:Pd (one value for all sites)")
	cmd.Flags().StringToStringVar(&conc, "conc", nil, "Target concentrations, as Au=0.5,Pd=0.5")
	cmd.Flags().Float64SliceVar(&cutoffs, "cutoffs", nil, "Cluster cutoffs, pairs first")
	cmd.Flags().IntVar(&P.MaxSize, "max-size", P.MaxSize, "Largest supercell, in prototype cells")
	cmd.Flags().IntVar(&P.NSteps, "steps", P.NSteps, "Annealing steps")
	cmd.Flags().BoolVar(&P.IncludeSmallerCells, "smaller-cells", false, "Also consider supercells smaller than the largest")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "", "Keep the program files in this directory")
	return cmd
}

//disordered returns the prototype with every site occupied as in occ.
func disordered(proto *structset.Structure, occ map[string]float64) *calc.DisorderedStructure {
	keys := make([]string, 0, len(occ))
	for k := range occ {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	occupants := make([]calc.Occupant, 0, len(keys))
	for _, k := range keys {
		occupants = append(occupants, calc.Occupant{Symbol: k, Weight: occ[k]})
	}
	D := &calc.DisorderedStructure{Cell: proto.Cell}
	for i := 0; i < proto.Len(); i++ {
		D.Sites = append(D.Sites, calc.Site{Position: proto.Coords.Vec(i), Occupants: occupants})
	}
	return D
}

//supercell returns the cell with each lattice vector multiplied by the
//corresponding repetition.
func supercell(cell *v3.Matrix, repeat []int) (*v3.Matrix, error) {
	if len(repeat) != 3 {
		return nil, fmt.Errorf("need 3 repetitions, got %d", len(repeat))
	}
	ret := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		if repeat[i] < 1 {
			return nil, fmt.Errorf("invalid repetition %d", repeat[i])
		}
		v := cell.Vec(i)
		for j := range v {
			v[j] *= float64(repeat[i])
		}
		ret.SetVec(i, v)
	}
	return ret, nil
}

func newMcsqsCommand(ctx *commandContext) *cobra.Command {
	var occ map[string]string
	var repeat []int
	var workdir string
	var wallclock string
	cmd := &cobra.Command{
		Use:   "mcsqs <prototype.xyz> <output.xyz>",
		Short: "Search a special quasirandom structure with the ATAT mcsqs program",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			proto, err := readPrototype(args[0])
			if err != nil {
				return err
			}
			weights, err := fractions(occ)
			if err != nil {
				return err
			}
			cell, err := supercell(proto.Cell, repeat)
			if err != nil {
				return err
			}
			h := calc.NewMcsqsHandle()
			h.SetCommand(cfg.Programs.Mcsqs)
			h.SetCorrdump(cfg.Programs.Corrdump)
			h.SetWallclock(cfg.Mcsqs.Wallclock)
			if wallclock != "" {
				d, err := time.ParseDuration(wallclock)
				if err != nil {
					return err
				}
				h.SetWallclock(d)
			}
			h.SetLogger(logging.Logger)
			dir := workdir
			if dir == "" {
				if dir, err = os.MkdirTemp("", "structset-mcsqs-"); err != nil {
					return err
				}
				defer os.RemoveAll(dir)
			} else if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			if err := h.BuildInput(dir, disordered(proto, weights), cell); err != nil {
				return err
			}
			if err := h.Run(cmd.Context(), dir); err != nil {
				return err
			}
			S, obj, err := h.Result(dir)
			if err != nil {
				return err
			}
			if err := structset.XYZFileWrite(args[1], S); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s), objective function %g\n", args[1], S.Formula(), obj)
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&occ, "occupancy", nil, "Site occupancy, as Au=0.5,Pd=0.5")
	cmd.Flags().IntSliceVar(&repeat, "repeat", []int{2, 2, 2}, "Supercell repetitions along each lattice vector")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "", "Keep the program files in this directory")
	cmd.Flags().StringVar(&wallclock, "wallclock", "", "Run mcsqs for this long (overrides mcsqs.wallclock)")
	return cmd
}

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var symbols []string
	var cutoffs []float64
	var fitMethod string
	var workdir string
	cmd := &cobra.Command{
		Use:   "train <prototype.xyz> <raw-dir>",
		Short: "Fit a cluster expansion to a labeled raw collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			proto, err := readPrototype(args[0])
			if err != nil {
				return err
			}
			sym, err := siteSymbols(symbols, proto.Len())
			if err != nil {
				return err
			}
			C, err := raw.ReadDir(args[1])
			if err != nil {
				return err
			}
			h := calc.NewTrainHandle()
			h.SetCommand(cfg.Programs.Train)
			h.SetCutoffs(cutoffs)
			if fitMethod != "" {
				h.SetFitMethod(fitMethod)
			}
			h.SetWorkDir(workdir)
			h.SetLogger(logging.Logger)
			p := workflow.NewPipeline(workflow.TrainStep(h))
			p.SetLogger(logging.Logger)
			wc := &workflow.Context{Prototype: proto, ChemicalSymbols: sym, Collection: C, Energies: C.Energies()}
			if err := p.Run(cmd.Context(), wc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model written to %s\n", wc.Model)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "Allowed elements per site, as Au:Pd (one value for all sites)")
	cmd.Flags().Float64SliceVar(&cutoffs, "cutoffs", nil, "Cluster cutoffs, pairs first")
	cmd.Flags().StringVar(&fitMethod, "fit-method", "", "Fitting method (default lasso)")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "model", "Directory for the model and the program files")
	return cmd
}
