/*
 * raw.go, part of structset.
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

//Package raw reads and writes collections in the raw exchange format: a set
//of whitespace-separated plain text tables, one row per line, as written
//by numpy's savetxt.
//
//	cells.raw           3 rows of 3 floats per structure
//	coordinates.raw     1 row of 3 floats per atom slot
//	atomic_numbers.raw  1 integer per atom slot
//	nframes.raw         1 integer per structure
//	energies.raw        1 float per structure, optional
//
//Tables are structure-major, then frame-major, then atom-major. The frame size
//is not stored: it is the number of coordinate rows divided by the total number
//of frames.
package raw

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmera/structset"
)

//File names.
const (
	Cells         = "cells.raw"
	Coordinates   = "coordinates.raw"
	AtomicNumbers = "atomic_numbers.raw"
	NFrames       = "nframes.raw"
	Energies      = "energies.raw"
	PBC           = "pbc.raw"
	Indices       = "indices.raw"
)

//Required are the files that must be present for a collection to be read.
var Required = []string{Cells, Coordinates, AtomicNumbers, NFrames}

//Creator returns a writer for the table with the given name.
type Creator func(name string) (io.WriteCloser, error)

//Opener returns a reader for the table with the given name. A table that does not
//exist must be reported with an error for which errors.Is(err, fs.ErrNotExist) is true.
type Opener func(name string) (io.ReadCloser, error)

//DirCreator returns a Creator for files in dir.
func DirCreator(dir string) Creator {
	return func(name string) (io.WriteCloser, error) {
		return os.Create(filepath.Join(dir, name))
	}
}

//DirOpener returns an Opener for files in dir.
func DirOpener(dir string) Opener {
	return func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	}
}

//WriteDir writes the exchange tables of C to dir, which is created if needed.
//energies.raw is written only if C has energies.
func WriteDir(dir string, C *structset.Collection) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return Write(DirCreator(dir), C)
}

//ReadDir reads a collection from the tables in dir.
func ReadDir(dir string) (*structset.Collection, error) {
	return Read(DirOpener(dir))
}

//Write writes the exchange tables of C with open.
//energies.raw is written only if C has energies.
func Write(open Creator, C *structset.Collection) error {
	if C.Len() == 0 {
		return structset.NewError(structset.ErrValidation, "can't write an empty collection", "raw.Write")
	}
	if err := writeFloats(open, Cells, C.RawCells(), 3); err != nil {
		return err
	}
	if err := writeFloats(open, Coordinates, C.RawPositions(), 3); err != nil {
		return err
	}
	if err := writeInts(open, AtomicNumbers, C.RawAtomicNumbers(), 1); err != nil {
		return err
	}
	if err := writeInts(open, NFrames, C.NFrames(), 1); err != nil {
		return err
	}
	if C.HasEnergies() {
		return writeFloats(open, Energies, C.Energies(), 1)
	}
	return nil
}

//WriteFull writes the exchange tables of C and also its periodic boundary conditions
//(pbc.raw, 3 integers, 0 or 1, per structure) and its indices (indices.raw). Read
//restores both when present.
func WriteFull(open Creator, C *structset.Collection) error {
	if err := Write(open, C); err != nil {
		return err
	}
	pbc := make([]int, 0, 3*C.Len())
	for _, p := range C.PBC() {
		for _, b := range p {
			if b {
				pbc = append(pbc, 1)
			} else {
				pbc = append(pbc, 0)
			}
		}
	}
	if err := writeInts(open, PBC, pbc, 3); err != nil {
		return err
	}
	return writeInts(open, Indices, C.Indices(), 1)
}

func writeTable(open Creator, name string, n, cols int, field func(w *bufio.Writer, i int)) (err error) {
	f, err := open(name)
	if err != nil {
		return fmt.Errorf("raw: creating %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("raw: closing %s: %w", name, cerr)
		}
	}()
	w := bufio.NewWriter(f)
	for i := 0; i < n; i++ {
		field(w, i)
		if (i+1)%cols == 0 {
			w.WriteByte('\n')
		} else {
			w.WriteByte(' ')
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("raw: writing %s: %w", name, err)
	}
	return nil
}

func writeFloats(open Creator, name string, v []float64, cols int) error {
	return writeTable(open, name, len(v), cols, func(w *bufio.Writer, i int) {
		fmt.Fprintf(w, "%.18e", v[i])
	})
}

func writeInts(open Creator, name string, v []int, cols int) error {
	return writeTable(open, name, len(v), cols, func(w *bufio.Writer, i int) {
		w.WriteString(strconv.Itoa(v[i]))
	})
}

//Read reads a collection from the tables returned by open. A missing
//required table gives an error wrapping structset.ErrIncompleteOutput; malformed
//tables give errors wrapping structset.ErrFormat. A missing energies.raw means
//the collection is not labeled.
func Read(open Opener) (*structset.Collection, error) {
	nframes, _, err := readInts(open, NFrames, 1, true)
	if err != nil {
		return nil, err
	}
	M := len(nframes)
	if M == 0 {
		return nil, formatError(NFrames, 0, "no structures")
	}
	total := 0
	for i, n := range nframes {
		if n < 1 {
			return nil, formatError(NFrames, i+1, fmt.Sprintf("%d frames", n))
		}
		total += n
	}
	cells, _, err := readFloats(open, Cells, 3, true)
	if err != nil {
		return nil, err
	}
	if len(cells) != 9*M {
		return nil, formatError(Cells, 0, fmt.Sprintf("%d rows for %d structures", len(cells)/3, M))
	}
	coords, _, err := readFloats(open, Coordinates, 3, true)
	if err != nil {
		return nil, err
	}
	rows := len(coords) / 3
	if rows == 0 || rows%total != 0 {
		return nil, formatError(Coordinates, 0, fmt.Sprintf("%d rows can't be split in %d frames", rows, total))
	}
	numbers, _, err := readInts(open, AtomicNumbers, 1, true)
	if err != nil {
		return nil, err
	}
	if len(numbers) != rows {
		return nil, formatError(AtomicNumbers, 0, fmt.Sprintf("%d rows for %d coordinate rows", len(numbers), rows))
	}
	for i, z := range numbers {
		if _, err := structset.Symbol(z); err != nil {
			return nil, formatError(AtomicNumbers, i+1, fmt.Sprintf("unknown atomic number %d", z))
		}
	}
	p := structset.CollectionParams{
		NFrames:       nframes,
		FrameSize:     rows / total,
		Cells:         cells,
		Positions:     coords,
		AtomicNumbers: numbers,
	}
	energies, ok, err := readFloats(open, Energies, 1, false)
	if err != nil {
		return nil, err
	}
	if ok {
		if len(energies) != M {
			return nil, formatError(Energies, 0, fmt.Sprintf("%d energies for %d structures", len(energies), M))
		}
		p.Energies = energies
	}
	pbc, ok, err := readInts(open, PBC, 3, false)
	if err != nil {
		return nil, err
	}
	if ok {
		if len(pbc) != 3*M {
			return nil, formatError(PBC, 0, fmt.Sprintf("%d rows for %d structures", len(pbc)/3, M))
		}
		p.PBC = make([][3]bool, M)
		for i := range p.PBC {
			p.PBC[i] = [3]bool{pbc[3*i] != 0, pbc[3*i+1] != 0, pbc[3*i+2] != 0}
		}
	}
	ids, ok, err := readInts(open, Indices, 1, false)
	if err != nil {
		return nil, err
	}
	if ok {
		if len(ids) != M {
			return nil, formatError(Indices, 0, fmt.Sprintf("%d indices for %d structures", len(ids), M))
		}
		p.IDs = ids
	}
	return structset.NewCollection(p)
}

func formatError(name string, line int, msg string) error {
	if line > 0 {
		return structset.NewError(structset.ErrFormat, fmt.Sprintf("%s, line %d: %s", name, line, msg), "raw.Read")
	}
	return structset.NewError(structset.ErrFormat, fmt.Sprintf("%s: %s", name, msg), "raw.Read")
}

//readTable calls field for each value in the table, which must have cols columns.
//It returns false if the table doesn't exist and is not required.
func readTable(open Opener, name string, cols int, required bool, field func(s string) error) (bool, error) {
	f, err := open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !required {
				return false, nil
			}
			return false, structset.NewError(structset.ErrIncompleteOutput, fmt.Sprintf("missing %s", name), "raw.Read")
		}
		return false, fmt.Errorf("raw: opening %s: %w", name, err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for s.Scan() {
		line++
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		fields := strings.Fields(l)
		if len(fields) != cols {
			return true, formatError(name, line, fmt.Sprintf("%d columns, want %d", len(fields), cols))
		}
		for _, v := range fields {
			if err := field(v); err != nil {
				return true, formatError(name, line, fmt.Sprintf("can't parse %q", v))
			}
		}
	}
	if err := s.Err(); err != nil {
		return true, fmt.Errorf("raw: reading %s: %w", name, err)
	}
	return true, nil
}

func readFloats(open Opener, name string, cols int, required bool) ([]float64, bool, error) {
	var ret []float64
	ok, err := readTable(open, name, cols, required, func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		ret = append(ret, v)
		return err
	})
	return ret, ok, err
}

//numpy savetxt with the default format writes integer arrays as floats, so
//integer tables accept integral floats too.
func readInts(open Opener, name string, cols int, required bool) ([]int, bool, error) {
	var ret []int
	ok, err := readTable(open, name, cols, required, func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int(f)) {
				return err
			}
			v = int(f)
		}
		ret = append(ret, v)
		return nil
	})
	return ret, ok, err
}
