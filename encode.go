/*
 * encode.go, part of structset.
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
	"strings"
)

//Encode packs the structures into a new collection. All the structures are
//cut into frames of the same size (the gcd of their atom counts), in their original
//atom order, so atoms in each structure are expected to be ordered such that
//consecutive chunks are meaningful tiles (e.g. repeated primitive units one after the other).
//That ordering is not checked. The returned collection has no energies.
//On error, no collection is returned.
func Encode(structures []*Structure) (*Collection, error) {
	C := new(Collection)
	if err := C.SetStructures(structures); err != nil {
		return nil, errDecorate(err, "Encode")
	}
	return C, nil
}

//SetStructures encodes the structures into the receiver, replacing all its content,
//energies and indices included. It fails if the collection is frozen. The receiver
//is not modified if an error is returned.
func (C *Collection) SetStructures(structures []*Structure) error {
	if C.frozen {
		return Error{"can't encode into a stored collection", ErrImmutable, []string{"SetStructures"}, true}
	}
	if len(structures) == 0 {
		return Error{"no structures given", ErrValidation, []string{"SetStructures"}, true}
	}
	M := len(structures)
	counts := make([]int, M)
	for i, s := range structures {
		if err := s.Validate(); err != nil {
			return Error{fmt.Sprintf("structure %d: %s", i, err.Error()), ErrValidation, []string{"SetStructures"}, true}
		}
		counts[i] = s.Len()
	}
	fsize, err := FrameSize(counts)
	if err != nil {
		return errDecorate(err, "SetStructures")
	}
	nframes := make([]int, M)
	for i, n := range counts {
		//unreachable while fsize is the gcd of counts.
		if n%fsize != 0 {
			return Error{fmt.Sprintf("structure %d has %d atoms, not divisible by the frame size %d", i, n, fsize), ErrArithmetic, []string{"SetStructures"}, true}
		}
		nframes[i] = n / fsize
	}
	cnframes := prefixSum(nframes)
	total := cnframes[M-1] + nframes[M-1]

	cells := make([]float64, 9*M)
	positions := make([]float64, total*fsize*3)
	numbers := make([]int, total*fsize)
	pbc := make([][3]bool, M)
	elements := make(map[string]bool)
	for i, s := range structures {
		s.Cell.Data(cells[9*i : 9*i+9])
		pbc[i] = s.PBC
		//Frames of a structure are consecutive, and so are the atoms in each frame,
		//so the whole structure is one contiguous block, frame by frame.
		start := cnframes[i] * fsize
		for j := 0; j < nframes[i]; j++ {
			frame := s.Coords.View(j*fsize, 0, fsize, 3)
			offset := (start + j*fsize) * 3
			frame.Data(positions[offset : offset+fsize*3])
		}
		copy(numbers[start:start+counts[i]], s.Numbers)
		for _, z := range s.Numbers {
			elements[symbols[z]] = true
		}
	}
	C.cells = cells
	C.positions = positions
	C.numbers = numbers
	C.nframes = nframes
	C.cnframes = cnframes
	C.frameSize = fsize
	C.elements = sortedKeys(elements)
	C.energies = nil
	C.indices = consecutive(M)
	C.pbc = pbc
	return nil
}

//CollectionParams contains the already-tiled arrays of a collection, in the
//layout used by Collection: flat, structure-major, then frame-major, then atom-major.
type CollectionParams struct {
	Elements      []string  //optional. If given, it must be the set of symbols in AtomicNumbers.
	NFrames       []int     //number of frames in each structure.
	FrameSize     int       //number of atoms per frame.
	Cells         []float64 //9 per structure, each cell row-major.
	Positions     []float64 //3 per atom slot, FrameSize atom slots per frame.
	AtomicNumbers []int     //1 per atom slot.
	IDs           []int     //optional, external identifiers, one per structure. Defaults to 0..M-1.
	Energies      []float64 //optional, one per structure.
	PBC           [][3]bool //optional, one per structure. Defaults to fully periodic.
}

//NewCollection returns a collection built from the given arrays, after checking that
//their dimensions are consistent. The slices in p are copied.
func NewCollection(p CollectionParams) (*Collection, error) {
	C := new(Collection)
	if err := C.SetCollection(p); err != nil {
		return nil, errDecorate(err, "NewCollection")
	}
	return C, nil
}

//SetCollection sets all the arrays of the collection from p, after checking that
//types and dimensions are correct. If the frame counts in p have a common divisor g,
//every g consecutive frames are merged, so the frame size is always the gcd of the
//atom counts. It fails if the collection is frozen. The receiver
//is not modified if an error is returned.
func (C *Collection) SetCollection(p CollectionParams) error {
	if C.frozen {
		return Error{"can't set the arrays of a stored collection", ErrImmutable, []string{"SetCollection"}, true}
	}
	if err := validateParams(p); err != nil {
		return errDecorate(err, "SetCollection")
	}
	M := len(p.NFrames)
	//Atom counts are n*FrameSize, so their gcd is g*FrameSize, g being the gcd of
	//the frame counts. Every g consecutive frames are merged into one. Frames are
	//contiguous, so the flat arrays don't change.
	g, err := FrameSize(p.NFrames)
	if err != nil {
		return errDecorate(err, "SetCollection")
	}
	nframes := make([]int, M)
	for i, n := range p.NFrames {
		nframes[i] = n / g
	}
	elements := make(map[string]bool)
	for _, z := range p.AtomicNumbers {
		elements[symbols[z]] = true
	}
	C.cells = append([]float64(nil), p.Cells...)
	C.positions = append([]float64(nil), p.Positions...)
	C.numbers = append([]int(nil), p.AtomicNumbers...)
	C.nframes = nframes
	C.cnframes = prefixSum(C.nframes)
	C.frameSize = p.FrameSize * g
	C.elements = sortedKeys(elements)
	C.energies = nil
	if p.Energies != nil {
		C.energies = append([]float64(nil), p.Energies...)
	}
	C.indices = consecutive(M)
	if p.IDs != nil {
		C.indices = append([]int(nil), p.IDs...)
	}
	C.pbc = make([][3]bool, M)
	for i := range C.pbc {
		if p.PBC != nil {
			C.pbc[i] = p.PBC[i]
		} else {
			C.pbc[i] = [3]bool{true, true, true}
		}
	}
	return nil
}

func validateParams(p CollectionParams) error {
	errf := func(format string, a ...interface{}) error {
		return Error{fmt.Sprintf(format, a...), ErrValidation, []string{"validateParams"}, true}
	}
	M := len(p.NFrames)
	if M == 0 {
		return errf("no structures given")
	}
	if p.FrameSize < 1 {
		return errf("frame size must be positive, got %d", p.FrameSize)
	}
	total := 0
	for i, n := range p.NFrames {
		if n < 1 {
			return errf("structure %d has %d frames", i, n)
		}
		total += n
	}
	if len(p.Cells) != 9*M {
		return errf("%d cell elements given, %d expected for %d structures", len(p.Cells), 9*M, M)
	}
	if len(p.Positions) != 3*total*p.FrameSize {
		return errf("%d position elements given, %d expected for %d frames of %d atoms", len(p.Positions), 3*total*p.FrameSize, total, p.FrameSize)
	}
	if len(p.AtomicNumbers) != total*p.FrameSize {
		return errf("%d atomic numbers given, %d expected for %d frames of %d atoms", len(p.AtomicNumbers), total*p.FrameSize, total, p.FrameSize)
	}
	derived := make(map[string]bool)
	for i, z := range p.AtomicNumbers {
		if z < 1 || z > MaxAtomicNumber {
			return errf("atom slot %d has unknown atomic number %d", i, z)
		}
		derived[symbols[z]] = true
	}
	if p.Elements != nil {
		given := make(map[string]bool, len(p.Elements))
		for _, e := range p.Elements {
			given[e] = true
		}
		if len(given) != len(derived) {
			return errf("elements %v don't match the atomic numbers (%v)", p.Elements, sortedKeys(derived))
		}
		for e := range given {
			if !derived[e] {
				return errf("elements %v don't match the atomic numbers (%v)", p.Elements, sortedKeys(derived))
			}
		}
	}
	if p.IDs != nil && len(p.IDs) != M {
		return errf("%d ids given for %d structures", len(p.IDs), M)
	}
	if p.Energies != nil && len(p.Energies) != M {
		return errf("%d energies given for %d structures", len(p.Energies), M)
	}
	if p.PBC != nil && len(p.PBC) != M {
		return errf("%d pbc flags given for %d structures", len(p.PBC), M)
	}
	return nil
}

//sortedKeys returns the keys of the set in lexical order
func sortedKeys(set map[string]bool) []string {
	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

//consecutive returns 0..n-1
func consecutive(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = i
	}
	return ret
}

//elementsString is used in the collection's String method.
func elementsString(e []string) string {
	return "{" + strings.Join(e, ", ") + "}"
}
