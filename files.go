/*
 * files.go, part of structset.
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

package structset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	v3 "github.com/rmera/structset/v3"
)

//key=value and key="value with spaces" pairs in the comment line of an extended XYZ file.
var xyzKeyValue = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|(\S+))`)

//XYZFileRead reads all the structures in the extended XYZ file xyzname.
func XYZFileRead(xyzname string) ([]*Structure, error) {
	xyzfile, err := os.Open(xyzname)
	if err != nil {
		return nil, err
	}
	defer xyzfile.Close()
	S, err := XYZRead(xyzfile)
	if err != nil {
		return nil, errDecorate(err, "XYZFileRead "+xyzname)
	}
	return S, nil
}

//XYZRead reads all the structures in an extended XYZ stream. Each frame must have a
//Lattice="ax ay az bx by bz cx cy cz" entry in the comment line, and may have a
//pbc="T T T" entry (fully periodic if absent). Atom lines start with the chemical
//symbol (or the atomic number) followed by the cartesian coordinates.
func XYZRead(r io.Reader) ([]*Structure, error) {
	xyz := bufio.NewScanner(r)
	xyz.Buffer(make([]byte, 64*1024), 1024*1024)
	ret := make([]*Structure, 0, 1)
	line := 0
	ferr := func(format string, a ...interface{}) error {
		return Error{fmt.Sprintf("line %d: ", line) + fmt.Sprintf(format, a...), ErrFormat, []string{"XYZRead"}, true}
	}
	for xyz.Scan() {
		line++
		head := strings.TrimSpace(xyz.Text())
		if head == "" {
			continue
		}
		natoms, err := strconv.Atoi(head)
		if err != nil || natoms < 1 {
			return nil, ferr("expected a positive atom count, got %q", head)
		}
		if !xyz.Scan() {
			return nil, ferr("missing comment line")
		}
		line++
		cell, pbc, err := parseXYZComment(xyz.Text())
		if err != nil {
			return nil, ferr("%s", err.Error())
		}
		coords := make([]float64, 3*natoms)
		numbers := make([]int, natoms)
		for i := 0; i < natoms; i++ {
			if !xyz.Scan() {
				return nil, ferr("frame %d ends after %d of %d atoms", len(ret), i, natoms)
			}
			line++
			fields := strings.Fields(xyz.Text())
			if len(fields) < 4 {
				return nil, ferr("atom line ill formed: %q", xyz.Text())
			}
			numbers[i], err = AtomicNumber(fields[0])
			if err != nil {
				z, err2 := strconv.Atoi(fields[0])
				if err2 != nil || z < 1 || z > MaxAtomicNumber {
					return nil, ferr("unknown element %q", fields[0])
				}
				numbers[i] = z
			}
			for j := 0; j < 3; j++ {
				coords[3*i+j], err = strconv.ParseFloat(fields[j+1], 64)
				if err != nil {
					return nil, ferr("can't parse coordinate %q", fields[j+1])
				}
			}
		}
		c, _ := v3.NewMatrix(coords)
		S, err := NewStructure(cell, c, numbers, pbc)
		if err != nil {
			return nil, errDecorate(err, "XYZRead")
		}
		ret = append(ret, S)
	}
	if err := xyz.Err(); err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, Error{"no structures found", ErrFormat, []string{"XYZRead"}, true}
	}
	return ret, nil
}

func parseXYZComment(comment string) (*v3.Matrix, [3]bool, error) {
	pbc := [3]bool{true, true, true}
	var cell *v3.Matrix
	for _, kv := range xyzKeyValue.FindAllStringSubmatch(comment, -1) {
		val := kv[2]
		if val == "" {
			val = kv[3]
		}
		switch strings.ToLower(kv[1]) {
		case "lattice":
			fields := strings.Fields(val)
			if len(fields) != 9 {
				return nil, pbc, fmt.Errorf("Lattice needs 9 numbers, got %d", len(fields))
			}
			data := make([]float64, 9)
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, pbc, fmt.Errorf("can't parse lattice element %q", f)
				}
				data[i] = v
			}
			cell, _ = v3.NewMatrix(data)
		case "pbc":
			fields := strings.Fields(val)
			if len(fields) != 3 {
				return nil, pbc, fmt.Errorf("pbc needs 3 flags, got %d", len(fields))
			}
			for i, f := range fields {
				switch strings.ToLower(f) {
				case "t", "true", "1":
					pbc[i] = true
				case "f", "false", "0":
					pbc[i] = false
				default:
					return nil, pbc, fmt.Errorf("can't parse pbc flag %q", f)
				}
			}
		}
	}
	if cell == nil {
		return nil, pbc, fmt.Errorf("no Lattice in comment line")
	}
	return cell, pbc, nil
}

//XYZFileWrite writes the structures to the extended XYZ file xyzname which will
//be created for that. If the file exists it will be overwritten.
func XYZFileWrite(xyzname string, S ...*Structure) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	for _, s := range S {
		if err := XYZWrite(w, s); err != nil {
			return errDecorate(err, "XYZFileWrite "+xyzname)
		}
	}
	return w.Flush()
}

//XYZWrite writes the structure S in extended XYZ format to w.
func XYZWrite(w io.Writer, S *Structure) error {
	if err := S.Validate(); err != nil {
		return errDecorate(err, "XYZWrite")
	}
	symbols, err := S.Symbols()
	if err != nil {
		return errDecorate(err, "XYZWrite")
	}
	c := S.Cell.Data()
	flag := func(b bool) string {
		if b {
			return "T"
		}
		return "F"
	}
	if _, err := fmt.Fprintf(w, "%d\nLattice=\"%.10f %.10f %.10f %.10f %.10f %.10f %.10f %.10f %.10f\" Properties=species:S:1:pos:R:3 pbc=\"%s %s %s\"\n",
		S.Len(), c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7], c[8], flag(S.PBC[0]), flag(S.PBC[1]), flag(S.PBC[2])); err != nil {
		return err
	}
	for i, s := range symbols {
		v := S.Coords.Vec(i)
		if _, err := fmt.Fprintf(w, "%-2s %16.10f %16.10f %16.10f\n", s, v[0], v[1], v[2]); err != nil {
			return err
		}
	}
	return nil
}
