/*
 * mcsqs.go, part of structset.
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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
	v3 "github.com/rmera/structset/v3"
)

//File names used by mcsqs.
const (
	RndstrInput  = "rndstr.in"
	SQSCellInput = "sqscell.out"
	BestSQS      = "bestsqs.out"
	BestCorr     = "bestcorr.out"
)

//vacancies below this are considered rounding noise.
const vacancyTolerance = 1e-4

//Occupant is an element and its weight on a partially occupied site.
type Occupant struct {
	Symbol string
	Weight float64
}

//Site is a site of a disordered structure.
type Site struct {
	Position  [3]float64 //cartesian
	Occupants []Occupant
}

//DisorderedStructure is a structure with partially occupied sites, the input
//of an mcsqs run. Sites whose weights add to less than 1 have vacancies.
type DisorderedStructure struct {
	Cell  *v3.Matrix
	Sites []Site
}

//Validate checks that the structure has a 3x3 cell and sites with known
//elements and weights adding at most to 1.
func (D *DisorderedStructure) Validate() error {
	if D.Cell == nil || D.Cell.NVecs() != 3 {
		return structset.NewError(structset.ErrValidation, "cell must be 3x3", "DisorderedStructure.Validate")
	}
	if len(D.Sites) == 0 {
		return structset.NewError(structset.ErrValidation, "no sites", "DisorderedStructure.Validate")
	}
	for i, s := range D.Sites {
		if len(s.Occupants) == 0 {
			return structset.NewError(structset.ErrValidation, fmt.Sprintf("site %d has no occupants", i), "DisorderedStructure.Validate")
		}
		sum := 0.0
		for _, o := range s.Occupants {
			if _, err := structset.AtomicNumber(o.Symbol); err != nil {
				return structset.NewError(structset.ErrValidation, fmt.Sprintf("site %d: unknown element %q", i, o.Symbol), "DisorderedStructure.Validate")
			}
			if o.Weight <= 0 {
				return structset.NewError(structset.ErrValidation, fmt.Sprintf("site %d: weight %g for %s", i, o.Weight, o.Symbol), "DisorderedStructure.Validate")
			}
			sum += o.Weight
		}
		if sum > 1+vacancyTolerance {
			return structset.NewError(structset.ErrValidation, fmt.Sprintf("site %d: weights add to %g", i, sum), "DisorderedStructure.Validate")
		}
	}
	return nil
}

//McsqsHandle runs the ATAT corrdump and mcsqs programs, one after the other.
//mcsqs doesn't stop by itself, so it runs until the wallclock limit is reached
//(or the context is done) and the best structure found so far is used.
type McsqsHandle struct {
	corrdump  string
	command   string
	output    string
	wallclock time.Duration
	log       *zap.SugaredLogger
}

//NewMcsqsHandle returns a handle with the default settings.
func NewMcsqsHandle() *McsqsHandle {
	run := new(McsqsHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the default programs, and a wallclock limit of 30 minutes.
func (O *McsqsHandle) SetDefaults() {
	O.corrdump = "corrdump"
	O.command = "mcsqs"
	O.output = DefaultOutput
	O.wallclock = 30 * time.Minute
}

//SetCommand sets the mcsqs program.
func (O *McsqsHandle) SetCommand(name string) { O.command = name }

//SetCorrdump sets the corrdump program.
func (O *McsqsHandle) SetCorrdump(name string) { O.corrdump = name }

//SetOutputName sets the file that gets the standard output of both programs.
func (O *McsqsHandle) SetOutputName(name string) { O.output = name }

//SetWallclock sets how long mcsqs is allowed to run. Zero means no limit other
//than the context's.
func (O *McsqsHandle) SetWallclock(d time.Duration) { O.wallclock = d }

//SetLogger sets the logger for the handle.
func (O *McsqsHandle) SetLogger(l *zap.SugaredLogger) { O.log = l }

func formatRow(v [3]float64) string {
	return fmt.Sprintf("%-18.10f %-18.10f %-18.10f ", v[0], v[1], v[2])
}

//Rndstr returns the content of rndstr.in for the structure.
func Rndstr(D *DisorderedStructure) string {
	var b strings.Builder
	b.WriteString("1 1 1 90 90 90\n")
	for i := 0; i < 3; i++ {
		b.WriteString(formatRow(D.Cell.Vec(i)) + "\n")
	}
	for _, s := range D.Sites {
		occ := make([]string, 0, len(s.Occupants)+1)
		sum := 0.0
		for _, o := range s.Occupants {
			occ = append(occ, o.Symbol+"="+strconv.FormatFloat(o.Weight, 'f', -1, 64))
			sum += o.Weight
		}
		if vac := 1 - sum; vac > vacancyTolerance {
			occ = append(occ, "Vac="+strconv.FormatFloat(vac, 'f', -1, 64))
		}
		b.WriteString(formatRow(s.Position) + strings.Join(occ, ", ") + "\n")
	}
	return b.String()
}

//SQSCell returns the content of sqscell.out for the supercell with the given
//lattice vectors (rows of cell).
func SQSCell(cell *v3.Matrix) string {
	var b strings.Builder
	b.WriteString("1\n\n")
	for i := 0; i < 3; i++ {
		b.WriteString(formatRow(cell.Vec(i)) + "\n")
	}
	return b.String()
}

//BuildInput writes rndstr.in and sqscell.out in dir.
func (O *McsqsHandle) BuildInput(dir string, prim *DisorderedStructure, sqscell *v3.Matrix) error {
	if err := prim.Validate(); err != nil {
		return err
	}
	if sqscell == nil || sqscell.NVecs() != 3 {
		return structset.NewError(structset.ErrValidation, "SQS cell must be 3x3", "McsqsHandle.BuildInput")
	}
	if err := os.WriteFile(filepath.Join(dir, RndstrInput), []byte(Rndstr(prim)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SQSCellInput), []byte(SQSCell(sqscell)), 0o644)
}

//Run runs corrdump and then mcsqs in dir. Reaching the wallclock limit
//is not an error.
func (O *McsqsHandle) Run(ctx context.Context, dir string) error {
	err := command(ctx, O.log, dir, O.corrdump, []string{"-ro", "-noe", "-nop", "-clus", "-2=1.1", "-l=" + RndstrInput}, O.output)
	if err != nil {
		return err
	}
	mctx := ctx
	if O.wallclock > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, O.wallclock)
		defer cancel()
	}
	err = command(mctx, O.log, dir, O.command, []string{"-rc", "-sd=1234"}, O.output)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		logging.OrNop(O.log).Infow("mcsqs stopped at the wallclock limit", "limit", O.wallclock)
		return nil
	}
	return err
}

//Result reads the best structure found and its objective function from dir.
func (O *McsqsHandle) Result(dir string) (*structset.Structure, float64, error) {
	if err := expect(dir, "McsqsHandle.Result", BestSQS, BestCorr); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(dir, BestSQS))
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	S, err := ParseBestSQS(f)
	if err != nil {
		return nil, 0, err
	}
	c, err := os.Open(filepath.Join(dir, BestCorr))
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()
	obj, err := ParseBestCorr(c)
	if err != nil {
		return nil, 0, err
	}
	return S, obj, nil
}

//ParseBestSQS reads a structure in the ATAT format: 3 lines with the coordinate
//system, 3 lines with the lattice vectors in that system, and one line per atom
//with its coordinates in that system followed by its element. Cell and positions
//are returned in cartesian coordinates.
func ParseBestSQS(r io.Reader) (*structset.Structure, error) {
	ferr := func(line int, format string, a ...interface{}) error {
		return structset.NewError(structset.ErrFormat, fmt.Sprintf("%s, line %d: ", BestSQS, line)+fmt.Sprintf(format, a...), "ParseBestSQS")
	}
	s := bufio.NewScanner(r)
	rows := make([][3]float64, 0, 6)
	var positions [][3]float64
	var numbers []int
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, ferr(line, "%d fields", len(fields))
		}
		var v [3]float64
		for i := range v {
			f, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, ferr(line, "can't parse %q", fields[i])
			}
			v[i] = f
		}
		if len(rows) < 6 {
			rows = append(rows, v)
			continue
		}
		if len(fields) < 4 {
			return nil, ferr(line, "atom without element")
		}
		z, err := structset.AtomicNumber(fields[len(fields)-1])
		if err != nil {
			return nil, ferr(line, "unknown element %q", fields[len(fields)-1])
		}
		positions = append(positions, v)
		numbers = append(numbers, z)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, ferr(line, "no atoms")
	}
	coordsys := v3.Zeros(3)
	lattice := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		coordsys.SetVec(i, rows[i])
		lattice.SetVec(i, rows[i+3])
	}
	frac := v3.Zeros(len(positions))
	for i, p := range positions {
		frac.SetVec(i, p)
	}
	cell := v3.Zeros(3)
	cell.Cart(lattice, coordsys)
	coords := v3.Zeros(len(positions))
	coords.Cart(frac, coordsys)
	return structset.NewStructure(cell, coords, numbers)
}

//ParseBestCorr returns the objective function in a bestcorr.out file.
//A perfect match gives 0.
func ParseBestCorr(r io.Reader) (float64, error) {
	s := bufio.NewScanner(r)
	obj := ""
	for s.Scan() {
		if l := s.Text(); strings.Contains(l, "Objective_function") {
			parts := strings.Split(l, "=")
			obj = strings.TrimSpace(parts[len(parts)-1])
		}
	}
	if err := s.Err(); err != nil {
		return 0, err
	}
	if obj == "" {
		return 0, structset.NewError(structset.ErrFormat, "no Objective_function in "+BestCorr, "ParseBestCorr")
	}
	if strings.Contains(obj, "Perfect_match") {
		return 0, nil
	}
	v, err := strconv.ParseFloat(obj, 64)
	if err != nil {
		return 0, structset.NewError(structset.ErrFormat, fmt.Sprintf("can't parse objective function %q", obj), "ParseBestCorr")
	}
	return v, nil
}
