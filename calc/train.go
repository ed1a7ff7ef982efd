/*
 * train.go, part of structset.
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
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
	"github.com/rmera/structset/raw"
)

//ModelFile is the name of the model written by the training program.
const ModelFile = "model.ce"

type trainInput struct {
	ChemicalSymbols [][]string    `json:"chemical_symbols"`
	Cutoffs         []float64     `json:"cutoffs"`
	FitMethod       string        `json:"fit_method"`
	Structure       structureJSON `json:"structure"`
}

//TrainHandle runs a cluster-expansion training program. The program takes the name
//of a JSON input file, reads the training set from raw tables (energies included)
//in its working directory, and writes model.ce.
type TrainHandle struct {
	command    string
	inputname  string
	outputname string
	fitMethod  string
	cutoffs    []float64
	workdir    string
	log        *zap.SugaredLogger
}

//NewTrainHandle returns a handle with the default settings.
func NewTrainHandle() *TrainHandle {
	run := new(TrainHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default command, file names and the lasso fit method.
func (O *TrainHandle) SetDefaults() {
	O.command = "train.py"
	O.inputname = DefaultInput
	O.outputname = DefaultOutput
	O.fitMethod = "lasso"
}

//SetCommand sets the program to run. It can include leading arguments.
func (O *TrainHandle) SetCommand(name string) { O.command = name }

//SetName sets the name of the JSON input file.
func (O *TrainHandle) SetName(name string) { O.inputname = name }

//SetOutputName sets the file that gets the program's standard output.
func (O *TrainHandle) SetOutputName(name string) { O.outputname = name }

//SetFitMethod sets the fitting method.
func (O *TrainHandle) SetFitMethod(m string) { O.fitMethod = m }

//SetCutoffs sets the cluster cutoffs.
func (O *TrainHandle) SetCutoffs(c []float64) { O.cutoffs = c }

//SetWorkDir sets the directory used by Train. The model is left there, so
//it should be set when the model is to be kept.
func (O *TrainHandle) SetWorkDir(dir string) { O.workdir = dir }

//SetLogger sets the logger for the handle.
func (O *TrainHandle) SetLogger(l *zap.SugaredLogger) { O.log = l }

//BuildInput writes the JSON input and the training set C to dir. C must have energies.
func (O *TrainHandle) BuildInput(dir string, prototype *structset.Structure, symbols [][]string, C *structset.Collection) error {
	if !C.HasEnergies() {
		return structset.NewError(structset.ErrValidation, "training set has no energies", "TrainHandle.BuildInput")
	}
	if len(O.cutoffs) == 0 {
		return structset.NewError(structset.ErrValidation, "no cutoffs set", "TrainHandle.BuildInput")
	}
	s, err := newStructureJSON(prototype)
	if err != nil {
		return fmt.Errorf("calc: training prototype: %w", err)
	}
	in := trainInput{ChemicalSymbols: symbols, Cutoffs: O.cutoffs, FitMethod: O.fitMethod, Structure: s}
	if err := writeJSON(filepath.Join(dir, O.inputname), in); err != nil {
		return err
	}
	return raw.WriteDir(dir, C)
}

//Run runs the training in dir.
func (O *TrainHandle) Run(ctx context.Context, dir string) error {
	return command(ctx, O.log, dir, O.command, []string{O.inputname}, O.outputname)
}

//Model returns the path of the model in dir.
func (O *TrainHandle) Model(dir string) (string, error) {
	if err := expect(dir, "TrainHandle.Model", O.outputname, ModelFile); err != nil {
		return "", err
	}
	return filepath.Join(dir, ModelFile), nil
}

//Train trains a model on the labeled collection C and returns the path of the model file.
func (O *TrainHandle) Train(ctx context.Context, prototype *structset.Structure, symbols [][]string, C *structset.Collection) (string, error) {
	if O.workdir == "" {
		return "", structset.NewError(structset.ErrValidation, "no working directory set for the model", "TrainHandle.Train")
	}
	dir, _, err := workdir(O.workdir, "")
	if err != nil {
		return "", err
	}
	if err := O.BuildInput(dir, prototype, symbols, C); err != nil {
		return "", err
	}
	if err := O.Run(ctx, dir); err != nil {
		return "", err
	}
	model, err := O.Model(dir)
	if err != nil {
		return "", err
	}
	logging.OrNop(O.log).Infow("model trained", "structures", C.Len(), "fit_method", O.fitMethod, "model", model)
	return model, nil
}
