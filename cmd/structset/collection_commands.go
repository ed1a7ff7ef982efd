/*
 * collection_commands.go, part of structset.
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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmera/structset"
	"github.com/rmera/structset/calc"
	"github.com/rmera/structset/internal/logging"
	"github.com/rmera/structset/raw"
	"github.com/rmera/structset/workflow"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <raw-dir> <file.xyz>...",
		Short: "Encode the structures in extended XYZ files into a raw collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var structures []*structset.Structure
			for _, name := range args[1:] {
				s, err := structset.XYZFileRead(name)
				if err != nil {
					return err
				}
				structures = append(structures, s...)
			}
			C, err := structset.Encode(structures)
			if err != nil {
				return err
			}
			if err := raw.WriteDir(args[0], C); err != nil {
				return err
			}
			logging.Logger.Infow("encoded collection", "dir", args[0], "structures", C.Len(), "frame_size", C.FrameSize())
			fmt.Fprintf(cmd.OutOrStdout(), "Encoded %d structures (frame size %d) into %s\n", C.Len(), C.FrameSize(), args[0])
			return nil
		},
	}
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var perStructure bool
	cmd := &cobra.Command{
		Use:   "info <raw-dir>",
		Short: "Summarize a raw collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			C, err := raw.ReadDir(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summaryTable(C))
			if perStructure {
				t, err := structureTable(C)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&perStructure, "structures", "s", false, "Also list every structure")
	return cmd
}

func summaryTable(C *structset.Collection) string {
	rows := [][]string{
		{"Structures", strconv.Itoa(C.Len())},
		{"Frame size", strconv.Itoa(C.FrameSize())},
		{"Frames", strconv.Itoa(C.Frames())},
		{"Elements", strings.Join(C.Elements(), " ")},
	}
	if st, err := structset.EnergyStats(C); err == nil {
		rows = append(rows,
			[]string{"Energy mean", fmt.Sprintf("%.6f", st.Mean)},
			[]string{"Energy std", fmt.Sprintf("%.6f", st.StdDev)},
			[]string{"Energy min", fmt.Sprintf("%.6f", st.Min)},
			[]string{"Energy max", fmt.Sprintf("%.6f", st.Max)},
		)
	} else {
		rows = append(rows, []string{"Energies", "none"})
	}
	return renderTable([]string{"Property", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func structureTable(C *structset.Collection) (string, error) {
	nframes := C.NFrames()
	var e []float64
	if C.HasEnergies() {
		e = C.Energies()
	}
	rows := make([][]string, 0, C.Len())
	for i := 0; i < C.Len(); i++ {
		s, err := C.Structure(i)
		if err != nil {
			return "", err
		}
		energy := "-"
		if e != nil {
			energy = fmt.Sprintf("%.6f", e[i])
		}
		rows = append(rows, []string{strconv.Itoa(i), s.Formula(), strconv.Itoa(s.Len()), strconv.Itoa(nframes[i]), energy})
	}
	return renderTable([]string{"Index", "Formula", "Atoms", "Frames", "Energy"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight}), nil
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <raw-dir> <index>",
		Short: "Decode one structure of a raw collection as extended XYZ",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			C, err := raw.ReadDir(args[0])
			if err != nil {
				return err
			}
			s, err := C.Structure(idx)
			if err != nil {
				return err
			}
			if output != "" {
				return structset.XYZFileWrite(output, s)
			}
			return structset.XYZWrite(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newLabelCommand(ctx *commandContext) *cobra.Command {
	var output string
	var program string
	cmd := &cobra.Command{
		Use:   "label <raw-dir> [energies-file]",
		Short: "Attach one energy per structure to a raw collection",
		Long: `Attach one energy per structure to a raw collection. The energies are read
from energies-file or, if it is not given, computed by running the energy
program (--program or programs.evaluate) once per structure.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			C, err := raw.ReadDir(args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				e, err := readEnergies(args[1])
				if err != nil {
					return err
				}
				if err := C.SetEnergies(e); err != nil {
					return err
				}
			} else {
				if program == "" {
					program = cfg.Programs.Evaluate
				}
				if program == "" {
					return fmt.Errorf("no energies file and no energy program given")
				}
				h := calc.NewEvaluateHandle(program)
				h.SetLogger(logging.Logger)
				p := workflow.NewPipeline(workflow.LabelStep(h, cfg.Label.Workers))
				p.SetLogger(logging.Logger)
				wc := &workflow.Context{Collection: C}
				if err := p.Run(cmd.Context(), wc); err != nil {
					return err
				}
				C = wc.Collection
			}
			dest := output
			if dest == "" {
				dest = args[0]
			}
			if err := raw.WriteDir(dest, C); err != nil {
				return err
			}
			logging.Logger.Infow("labeled collection", "dir", dest, "energies", C.Len())
			fmt.Fprintf(cmd.OutOrStdout(), "Labeled %d structures in %s\n", C.Len(), dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the labeled collection to this directory")
	cmd.Flags().StringVarP(&program, "program", "p", "", "Energy program (overrides programs.evaluate)")
	return cmd
}

//readEnergies reads whitespace-separated numbers, skipping blank lines and
//lines starting with #.
func readEnergies(name string) ([]float64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ret []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		l := strings.TrimSpace(sc.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		for _, field := range strings.Fields(l) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid energy %q", name, line, field)
			}
			ret = append(ret, v)
		}
	}
	return ret, sc.Err()
}
