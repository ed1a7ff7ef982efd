/*
 * evaluate.go, part of structset.
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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
)

//EvaluateHandle runs an energy program once per structure. The program reads the
//structure, in extended XYZ format, from its standard input and prints the energy
//as the last field of the last non-empty line of its standard output.
type EvaluateHandle struct {
	command string
	log     *zap.SugaredLogger
}

//NewEvaluateHandle returns a handle that runs command.
func NewEvaluateHandle(command string) *EvaluateHandle {
	return &EvaluateHandle{command: command}
}

//SetLogger sets the logger for the handle.
func (O *EvaluateHandle) SetLogger(l *zap.SugaredLogger) { O.log = l }

//Evaluate returns the energy the program prints for s. It is safe to call
//concurrently.
func (O *EvaluateHandle) Evaluate(ctx context.Context, s *structset.Structure) (float64, error) {
	fields := strings.Fields(O.command)
	if len(fields) == 0 {
		return 0, fmt.Errorf("calc: empty command: %w", ErrNotRunning)
	}
	var in, out bytes.Buffer
	if err := structset.XYZWrite(&in, s); err != nil {
		return 0, err
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = &in
	cmd.Stdout = &out
	logging.OrNop(O.log).Debugw("evaluating structure", "command", fields[0], "atoms", s.Len())
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("calc: %s: %w", fields[0], ctx.Err())
		}
		return 0, fmt.Errorf("calc: %s: %v: %w", O.command, err, ErrNotRunning)
	}
	return parseEnergy(out.String())
}

func parseEnergy(out string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	f := strings.Fields(lines[len(lines)-1])
	if len(f) == 0 {
		return 0, structset.NewError(structset.ErrIncompleteOutput, "no energy printed", "EvaluateHandle.Evaluate")
	}
	e, err := strconv.ParseFloat(f[len(f)-1], 64)
	if err != nil {
		return 0, structset.NewError(structset.ErrFormat, fmt.Sprintf("invalid energy %q", f[len(f)-1]), "EvaluateHandle.Evaluate")
	}
	return e, nil
}
