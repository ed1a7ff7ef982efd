/*
 * calc.go, part of structset.
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

//Package calc runs the external programs that produce and consume structure
//collections: structure enumeration, special quasirandom structure (SQS)
//generation, the ATAT mcsqs program, and cluster-expansion training.
//
//Each program has a handle. BuildInput writes the input files to a working
//directory, Run runs the program there, and the handle's parsing methods read
//the results back. Output files that the program should have produced but
//didn't are reported with errors wrapping structset.ErrIncompleteOutput.
package calc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
)

//Default file names.
const (
	DefaultInput  = "aiida.json"
	DefaultOutput = "aiida.out"
)

//ErrNotRunning is wrapped by the errors returned when an external program
//can't be started or exits with an error.
var ErrNotRunning = errors.New("external program failed")

//structureJSON is the prototype structure as the wrapper scripts read it.
type structureJSON struct {
	Cell      [][3]float64 `json:"cell"`
	PBC       [3]bool      `json:"pbc"`
	Positions [][3]float64 `json:"positions"`
}

func newStructureJSON(S *structset.Structure) (structureJSON, error) {
	if err := S.Validate(); err != nil {
		return structureJSON{}, err
	}
	ret := structureJSON{PBC: S.PBC, Cell: make([][3]float64, 3), Positions: make([][3]float64, S.Len())}
	for i := range ret.Cell {
		ret.Cell[i] = S.Cell.Vec(i)
	}
	for i := range ret.Positions {
		ret.Positions[i] = S.Coords.Vec(i)
	}
	return ret, nil
}

//command runs program (which may include leading arguments, as in "python genenum.py")
//with args in dir. The standard output goes to the file stdout in dir, if given, and
//the standard error to the same file, or is discarded.
func command(ctx context.Context, log *zap.SugaredLogger, dir, program string, args []string, stdout string) error {
	fields := strings.Fields(program)
	if len(fields) == 0 {
		return fmt.Errorf("calc: empty command: %w", ErrNotRunning)
	}
	args = append(fields[1:len(fields):len(fields)], args...)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Dir = dir
	var out io.WriteCloser
	if stdout != "" {
		f, err := os.OpenFile(filepath.Join(dir, stdout), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("calc: %w", err)
		}
		out = f
		defer out.Close()
		cmd.Stdout = f
		cmd.Stderr = f
	}
	logging.OrNop(log).Debugw("running external program", "command", fields[0], "args", args, "dir", dir)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("calc: %s: %w", fields[0], ctx.Err())
		}
		return fmt.Errorf("calc: %s %s: %v: %w", fields[0], strings.Join(args, " "), err, ErrNotRunning)
	}
	return nil
}

//expect returns an ErrIncompleteOutput error naming the first of files
//missing in dir, or nil if all are there.
func expect(dir, caller string, files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return structset.NewError(structset.ErrIncompleteOutput, fmt.Sprintf("%s not found in %s", f, dir), caller)
		}
	}
	return nil
}

//workdir returns dir if not empty, or a new temporary directory and
//a function to remove it.
func workdir(dir, pattern string) (string, func(), error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", nil, err
		}
		return dir, func() {}, nil
	}
	tmp, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	return tmp, func() { os.RemoveAll(tmp) }, nil
}
