/*
 * sqs.go, part of structset.
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
	v3 "github.com/rmera/structset/v3"
)

//SQSOutput is the name of the result file of the SQS program.
const SQSOutput = "sqs.out"

//SQSParams are the settings of an SQS generation.
type SQSParams struct {
	Prototype            *structset.Structure
	ChemicalSymbols      [][]string         //allowed elements for each site of the prototype
	TargetConcentrations map[string]float64 //by element
	Cutoffs              []float64          //cluster cutoffs, pairs first
	MaxSize              int                //largest supercell, in prototype cells. Default 16.
	NSteps               int                //annealing steps. Default 10000.
	IncludeSmallerCells  bool
}

//SetDefaults sets MaxSize and NSteps to their default values.
func (P *SQSParams) SetDefaults() {
	P.MaxSize = 16
	P.NSteps = 10000
}

type sqsInput struct {
	ChemicalSymbols      [][]string         `json:"chemical_symbols"`
	Cutoffs              []float64          `json:"cutoffs"`
	IncludeSmallerCells  bool               `json:"include_smaller_cells"`
	MaxSize              int                `json:"max_size"`
	NSteps               int                `json:"n_steps"`
	Structure            structureJSON      `json:"structure"`
	TargetConcentrations map[string]float64 `json:"target_concentrations"`
}

type sqsOutput struct {
	Structure struct {
		Cell          [][3]float64 `json:"cell"`
		Positions     [][3]float64 `json:"positions"`
		AtomicNumbers []int        `json:"atomic_numbers"`
		PBC           [3]bool      `json:"pbc"`
	} `json:"structure"`
	ClusterVector []float64 `json:"cluster_vector"`
}

//SQSHandle runs a special quasirandom structure generator, which takes the
//name of a JSON input file as its only argument and writes sqs.out.
type SQSHandle struct {
	command    string
	inputname  string
	outputname string
	workdir    string
	log        *zap.SugaredLogger
}

//NewSQSHandle returns a handle with the default settings.
func NewSQSHandle() *SQSHandle {
	run := new(SQSHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default command and file names.
func (O *SQSHandle) SetDefaults() {
	O.command = "gensqs.py"
	O.inputname = DefaultInput
	O.outputname = DefaultOutput
}

//SetCommand sets the program to run. It can include leading arguments.
func (O *SQSHandle) SetCommand(name string) { O.command = name }

//SetName sets the name of the JSON input file.
func (O *SQSHandle) SetName(name string) { O.inputname = name }

//SetOutputName sets the file that gets the program's standard output.
func (O *SQSHandle) SetOutputName(name string) { O.outputname = name }

//SetWorkDir sets the directory used by Generate. If not set, a temporary one is used.
func (O *SQSHandle) SetWorkDir(dir string) { O.workdir = dir }

//SetLogger sets the logger for the handle.
func (O *SQSHandle) SetLogger(l *zap.SugaredLogger) { O.log = l }

//BuildInput writes the JSON input for the generation in dir. Zero MaxSize and NSteps
//are replaced by their defaults.
func (O *SQSHandle) BuildInput(dir string, P SQSParams) error {
	s, err := newStructureJSON(P.Prototype)
	if err != nil {
		return fmt.Errorf("calc: SQS prototype: %w", err)
	}
	if len(P.ChemicalSymbols) != P.Prototype.Len() {
		return structset.NewError(structset.ErrValidation, fmt.Sprintf("%d symbol lists for %d sites", len(P.ChemicalSymbols), P.Prototype.Len()), "SQSHandle.BuildInput")
	}
	if len(P.Cutoffs) == 0 || len(P.TargetConcentrations) == 0 {
		return structset.NewError(structset.ErrValidation, "cutoffs and target concentrations are required", "SQSHandle.BuildInput")
	}
	def := SQSParams{}
	def.SetDefaults()
	if P.MaxSize <= 0 {
		P.MaxSize = def.MaxSize
	}
	if P.NSteps <= 0 {
		P.NSteps = def.NSteps
	}
	in := sqsInput{
		ChemicalSymbols:      P.ChemicalSymbols,
		Cutoffs:              P.Cutoffs,
		IncludeSmallerCells:  P.IncludeSmallerCells,
		MaxSize:              P.MaxSize,
		NSteps:               P.NSteps,
		Structure:            s,
		TargetConcentrations: P.TargetConcentrations,
	}
	return writeJSON(filepath.Join(dir, O.inputname), in)
}

//Run runs the generator in dir.
func (O *SQSHandle) Run(ctx context.Context, dir string) error {
	os.Remove(filepath.Join(dir, SQSOutput))
	return command(ctx, O.log, dir, O.command, []string{O.inputname}, O.outputname)
}

//Result reads the generated structure and its cluster vector from dir.
func (O *SQSHandle) Result(dir string) (*structset.Structure, []float64, error) {
	if err := expect(dir, "SQSHandle.Result", O.outputname, SQSOutput); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, SQSOutput))
	if err != nil {
		return nil, nil, err
	}
	var out sqsOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, nil, structset.NewError(structset.ErrFormat, fmt.Sprintf("%s: %s", SQSOutput, err), "SQSHandle.Result")
	}
	S, err := structureFromRows(out.Structure.Cell, out.Structure.Positions, out.Structure.AtomicNumbers, out.Structure.PBC)
	if err != nil {
		return nil, nil, fmt.Errorf("calc: %s: %w", SQSOutput, err)
	}
	return S, out.ClusterVector, nil
}

//Generate runs the whole generation and returns the structure and its cluster vector.
func (O *SQSHandle) Generate(ctx context.Context, P SQSParams) (*structset.Structure, []float64, error) {
	dir, cleanup, err := workdir(O.workdir, "structset-sqs-")
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()
	if err := O.BuildInput(dir, P); err != nil {
		return nil, nil, err
	}
	if err := O.Run(ctx, dir); err != nil {
		return nil, nil, err
	}
	S, cv, err := O.Result(dir)
	if err != nil {
		return nil, nil, err
	}
	logging.OrNop(O.log).Infow("SQS generated", "formula", S.Formula(), "atoms", S.Len())
	return S, cv, nil
}

func structureFromRows(cell, positions [][3]float64, numbers []int, pbc [3]bool) (*structset.Structure, error) {
	if len(cell) != 3 {
		return nil, structset.NewError(structset.ErrFormat, fmt.Sprintf("cell with %d rows", len(cell)), "structureFromRows")
	}
	c := v3.Zeros(3)
	for i, r := range cell {
		c.SetVec(i, r)
	}
	if len(positions) == 0 {
		return nil, structset.NewError(structset.ErrFormat, "no atoms", "structureFromRows")
	}
	p := v3.Zeros(len(positions))
	for i, r := range positions {
		p.SetVec(i, r)
	}
	return structset.NewStructure(c, p, numbers, pbc)
}
