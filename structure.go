/*
 * structure.go, part of structset.
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
	"fmt"
	"sort"
	"strconv"
	"strings"

	v3 "github.com/rmera/structset/v3"
)

//Structure is a single periodic atomic structure: a cell, the cartesian
//coordinates of its atoms and their atomic numbers.
type Structure struct {
	Cell    *v3.Matrix //3x3, each row is a lattice vector
	Coords  *v3.Matrix //Nx3, cartesian, in Angstrom
	Numbers []int      //N atomic numbers, in the same order as Coords
	PBC     [3]bool    //periodic boundary conditions along each lattice vector
}

//NewStructure returns a validated structure with the given cell, coordinates and atomic numbers.
//If no pbc is given, the structure is periodic in the 3 directions. The matrices and
//slice are not copied.
func NewStructure(cell, coords *v3.Matrix, numbers []int, pbc ...[3]bool) (*Structure, error) {
	S := &Structure{Cell: cell, Coords: coords, Numbers: numbers, PBC: [3]bool{true, true, true}}
	if len(pbc) > 0 {
		S.PBC = pbc[0]
	}
	if err := S.Validate(); err != nil {
		return nil, errDecorate(err, "NewStructure")
	}
	return S, nil
}

//Len returns the number of atoms in the structure.
func (S *Structure) Len() int {
	return len(S.Numbers)
}

//Validate checks that the cell is 3x3, that there is at least one atom, and that
//the number of coordinates and atomic numbers match.
func (S *Structure) Validate() error {
	if S == nil {
		return Error{"nil structure", ErrValidation, []string{"Validate"}, true}
	}
	if S.Cell == nil {
		return Error{"nil cell", ErrValidation, []string{"Validate"}, true}
	}
	if r, c := S.Cell.Dims(); r != 3 || c != 3 {
		return Error{fmt.Sprintf("cell must be 3x3, got %dx%d", r, c), ErrValidation, []string{"Validate"}, true}
	}
	if len(S.Numbers) == 0 {
		return Error{"structure has no atoms", ErrValidation, []string{"Validate"}, true}
	}
	if S.Coords == nil {
		return Error{"nil coordinates", ErrValidation, []string{"Validate"}, true}
	}
	r, c := S.Coords.Dims()
	if c != 3 {
		return Error{fmt.Sprintf("coordinates must have 3 columns, got %d", c), ErrValidation, []string{"Validate"}, true}
	}
	if r != len(S.Numbers) {
		return Error{fmt.Sprintf("%d coordinates but %d atomic numbers", r, len(S.Numbers)), ErrValidation, []string{"Validate"}, true}
	}
	for i, z := range S.Numbers {
		if z < 1 || z > MaxAtomicNumber {
			return Error{fmt.Sprintf("atom %d has unknown atomic number %d", i, z), ErrValidation, []string{"Validate"}, true}
		}
	}
	return nil
}

//Symbols returns the chemical symbols of the atoms in the structure.
func (S *Structure) Symbols() ([]string, error) {
	ret := make([]string, len(S.Numbers))
	for i, z := range S.Numbers {
		s, err := Symbol(z)
		if err != nil {
			return nil, errDecorate(err, "Symbols")
		}
		ret[i] = s
	}
	return ret, nil
}

//Formula returns the chemical formula in Hill notation: if there is carbon, C first,
//then H, then the rest in alphabetical order. Without carbon all symbols are in
//alphabetical order. Counts of 1 are omitted (e.g. "AuPd2").
func (S *Structure) Formula() string {
	count := make(map[string]int)
	for _, z := range S.Numbers {
		s, err := Symbol(z)
		if err != nil {
			s = "X"
		}
		count[s]++
	}
	keys := make([]string, 0, len(count))
	for k := range count {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if _, ok := count["C"]; ok {
		rest := make([]string, 0, len(keys))
		for _, k := range keys {
			if k != "C" && k != "H" {
				rest = append(rest, k)
			}
		}
		keys = []string{"C"}
		if _, ok := count["H"]; ok {
			keys = append(keys, "H")
		}
		keys = append(keys, rest...)
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		if count[k] > 1 {
			b.WriteString(strconv.Itoa(count[k]))
		}
	}
	return b.String()
}

//Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	ret := &Structure{PBC: S.PBC}
	if S.Cell != nil {
		ret.Cell = S.Cell.Clone()
	}
	if S.Coords != nil {
		ret.Coords = S.Coords.Clone()
	}
	ret.Numbers = append([]int(nil), S.Numbers...)
	return ret
}
