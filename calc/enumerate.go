/*
 * enumerate.go, part of structset.
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

package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
	"github.com/rmera/structset/raw"
)

//enumerateInput is the input of the enumeration script. Fields are in lexical
//order of their keys.
type enumerateInput struct {
	ChemicalSymbols           [][]string            `json:"chemical_symbols"`
	ConcentrationRestrictions map[string][2]float64 `json:"concentration_restrictions,omitempty"`
	Sizes                     []int                 `json:"sizes"`
	Structure                 structureJSON         `json:"structure"`
}

//EnumerateHandle runs a structure enumeration program. The program takes the
//name of a JSON input file as its only argument and writes the enumerated
//structures as raw tables in its working directory.
type EnumerateHandle struct {
	command      string
	inputname    string
	outputname   string
	workdir      string
	restrictions map[string][2]float64
	log          *zap.SugaredLogger
}

//NewEnumerateHandle returns a handle with the default settings.
func NewEnumerateHandle() *EnumerateHandle {
	run := new(EnumerateHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default command and file names.
func (O *EnumerateHandle) SetDefaults() {
	O.command = "genenum.py"
	O.inputname = DefaultInput
	O.outputname = DefaultOutput
}

//SetCommand sets the program to run. It can include leading arguments.
func (O *EnumerateHandle) SetCommand(name string) { O.command = name }

//Command returns the program to run.
func (O *EnumerateHandle) Command() string { return O.command }

//SetName sets the name of the JSON input file.
func (O *EnumerateHandle) SetName(name string) { O.inputname = name }

//SetOutputName sets the file that gets the program's standard output.
func (O *EnumerateHandle) SetOutputName(name string) { O.outputname = name }

//SetWorkDir sets the directory used by Enumerate. If not set, Enumerate uses a
//temporary directory that is removed afterwards.
func (O *EnumerateHandle) SetWorkDir(dir string) { O.workdir = dir }

//SetLogger sets the logger for the handle.
func (O *EnumerateHandle) SetLogger(l *zap.SugaredLogger) { O.log = l }

//SetConcentrationRestrictions restricts the concentration of each given element
//to the [min, max] range.
func (O *EnumerateHandle) SetConcentrationRestrictions(r map[string][2]float64) {
	O.restrictions = r
}

//Sizes returns the supercell sizes from min to max volume, both included.
//If max is not larger than min, it returns only min.
func Sizes(min, max int) []int {
	if max <= min {
		return []int{min}
	}
	ret := make([]int, 0, max-min+1)
	for i := min; i <= max; i++ {
		ret = append(ret, i)
	}
	return ret
}

//BuildInput writes the JSON input for the enumeration of the prototype structure
//in dir. symbols contains, for each site of the prototype, the elements allowed on it.
func (O *EnumerateHandle) BuildInput(dir string, prototype *structset.Structure, symbols [][]string, sizes []int) error {
	s, err := newStructureJSON(prototype)
	if err != nil {
		return fmt.Errorf("calc: enumeration prototype: %w", err)
	}
	if len(symbols) != prototype.Len() {
		return structset.NewError(structset.ErrValidation, fmt.Sprintf("%d symbol lists for %d sites", len(symbols), prototype.Len()), "EnumerateHandle.BuildInput")
	}
	if len(sizes) == 0 {
		return structset.NewError(structset.ErrValidation, "no sizes given", "EnumerateHandle.BuildInput")
	}
	in := enumerateInput{ChemicalSymbols: symbols, ConcentrationRestrictions: O.restrictions, Sizes: sizes, Structure: s}
	return writeJSON(filepath.Join(dir, O.inputname), in)
}

//Run runs the enumeration in dir.
func (O *EnumerateHandle) Run(ctx context.Context, dir string) error {
	//stale tables from a previous run would be read as results.
	for _, f := range raw.Required {
		os.Remove(filepath.Join(dir, f))
	}
	return command(ctx, O.log, dir, O.command, []string{O.inputname}, O.outputname)
}

//Collection reads the enumerated structures in dir. The collection has no energies.
func (O *EnumerateHandle) Collection(dir string) (*structset.Collection, error) {
	if err := expect(dir, "EnumerateHandle.Collection", append([]string{O.outputname}, raw.Required...)...); err != nil {
		return nil, err
	}
	return raw.ReadDir(dir)
}

//Enumerate enumerates the structures derived from prototype with the given
//allowed elements per site and supercell sizes.
func (O *EnumerateHandle) Enumerate(ctx context.Context, prototype *structset.Structure, symbols [][]string, sizes []int) (*structset.Collection, error) {
	dir, cleanup, err := workdir(O.workdir, "structset-enum-")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if err := O.BuildInput(dir, prototype, symbols, sizes); err != nil {
		return nil, err
	}
	if err := O.Run(ctx, dir); err != nil {
		return nil, err
	}
	C, err := O.Collection(dir)
	if err != nil {
		return nil, err
	}
	logging.OrNop(O.log).Infow("structures enumerated", "structures", C.Len(), "frame_size", C.FrameSize(), "dir", dir)
	return C, nil
}

//writeJSON writes v to name, indented as the wrapper scripts expect.
func writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}
