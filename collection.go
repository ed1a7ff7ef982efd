/*
 * collection.go, part of structset.
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
	"context"
	"fmt"

	v3 "github.com/rmera/structset/v3"
)

//Collection stores many structures of different sizes in a few dense arrays.
//Each structure is cut into one or more frames of FrameSize atoms, and all the
//frames are stored one after the other, so the arrays remain rectangular.
//A collection is mutable until it is stored in a provenance store. After that, it
//is frozen, and only a Clone of it can be modified.
//
//Reading methods are safe for concurrent use. Mutating methods require that
//no other goroutine accesses the collection at the same time.
type Collection struct {
	cells     []float64 //9 per structure
	positions []float64 //3*frameSize per frame
	numbers   []int     //frameSize per frame
	nframes   []int
	cnframes  []int
	frameSize int
	elements  []string
	energies  []float64
	indices   []int
	pbc       [][3]bool
	frozen    bool
	id        string
}

//Len returns the number of structures in the collection.
func (C *Collection) Len() int {
	return len(C.nframes)
}

//FrameSize returns the number of atoms in each frame.
func (C *Collection) FrameSize() int {
	return C.frameSize
}

//Frames returns the total number of frames stored.
func (C *Collection) Frames() int {
	if C.frameSize == 0 {
		return 0
	}
	return len(C.numbers) / C.frameSize
}

//Size returns the number of atoms of each structure.
func (C *Collection) Size() []int {
	ret := make([]int, len(C.nframes))
	for i, n := range C.nframes {
		ret[i] = n * C.frameSize
	}
	return ret
}

//Elements returns the chemical symbols present in the collection, sorted.
func (C *Collection) Elements() []string {
	return append([]string(nil), C.elements...)
}

//NFrames returns the number of frames of each structure.
func (C *Collection) NFrames() []int {
	return append([]int(nil), C.nframes...)
}

//CNFrames returns, for each structure, the index of its first frame.
func (C *Collection) CNFrames() []int {
	return append([]int(nil), C.cnframes...)
}

//Indices returns the external identifiers of the structures.
func (C *Collection) Indices() []int {
	return append([]int(nil), C.indices...)
}

//PBC returns the periodic boundary conditions of each structure.
func (C *Collection) PBC() [][3]bool {
	return append([][3]bool(nil), C.pbc...)
}

//Cells returns a copy of the cell of each structure.
func (C *Collection) Cells() []*v3.Matrix {
	ret := make([]*v3.Matrix, C.Len())
	for i := range ret {
		ret[i] = C.cell(i)
	}
	return ret
}

//Positions returns a copy of each frame's positions, as FrameSize()x3 matrices.
func (C *Collection) Positions() []*v3.Matrix {
	T := C.Frames()
	ret := make([]*v3.Matrix, T)
	step := 3 * C.frameSize
	for i := range ret {
		ret[i], _ = v3.NewMatrix(append([]float64(nil), C.positions[i*step:(i+1)*step]...))
	}
	return ret
}

//AtomicNumbers returns a copy of each frame's atomic numbers.
func (C *Collection) AtomicNumbers() [][]int {
	T := C.Frames()
	ret := make([][]int, T)
	for i := range ret {
		ret[i] = append([]int(nil), C.numbers[i*C.frameSize:(i+1)*C.frameSize]...)
	}
	return ret
}

//RawCells returns a copy of all the cells, 9 elements per structure.
func (C *Collection) RawCells() []float64 {
	return append([]float64(nil), C.cells...)
}

//RawPositions returns a copy of all the positions, 3 elements per atom slot,
//in frame order.
func (C *Collection) RawPositions() []float64 {
	return append([]float64(nil), C.positions...)
}

//RawAtomicNumbers returns a copy of all the atomic numbers, in frame order.
func (C *Collection) RawAtomicNumbers() []int {
	return append([]int(nil), C.numbers...)
}

func (C *Collection) cell(i int) *v3.Matrix {
	c, _ := v3.NewMatrix(append([]float64(nil), C.cells[9*i:9*i+9]...))
	return c
}

//Structure decodes and returns the structure with index idx.
func (C *Collection) Structure(idx int) (*Structure, error) {
	if idx < 0 || idx >= C.Len() {
		return nil, IndexError{Index: idx, Len: C.Len(), deco: []string{"Structure"}}
	}
	start := C.cnframes[idx] * C.frameSize
	n := C.nframes[idx] * C.frameSize
	coords, err := v3.NewMatrix(append([]float64(nil), C.positions[3*start:3*(start+n)]...))
	if err != nil {
		return nil, errDecorate(err, "Structure")
	}
	S := &Structure{
		Cell:    C.cell(idx),
		Coords:  coords,
		Numbers: append([]int(nil), C.numbers[start:start+n]...),
		PBC:     C.pbc[idx],
	}
	return S, nil
}

//Structures decodes and returns all the structures in the collection.
func (C *Collection) Structures() []*Structure {
	ret := make([]*Structure, C.Len())
	for i := range ret {
		ret[i], _ = C.Structure(i)
	}
	return ret
}

//SetEnergies sets the energies labeling the structures. values must have
//one element per structure. It can be called again to overwrite the energies,
//as long as the collection is not frozen.
func (C *Collection) SetEnergies(values []float64) error {
	if C.frozen {
		return Error{"can't set energies of a stored collection", ErrImmutable, []string{"SetEnergies"}, true}
	}
	if len(values) != C.Len() {
		return Error{fmt.Sprintf("%d energies given for %d structures", len(values), C.Len()), ErrValidation, []string{"SetEnergies"}, true}
	}
	C.energies = append([]float64(nil), values...)
	return nil
}

//Energies returns a copy of the energies, or nil if they have not been set.
func (C *Collection) Energies() []float64 {
	if C.energies == nil {
		return nil
	}
	return append([]float64(nil), C.energies...)
}

//HasEnergies returns true if the structures are labeled with energies.
func (C *Collection) HasEnergies() bool {
	return C.energies != nil
}

//SetIndices sets the external identifiers of the structures.
func (C *Collection) SetIndices(ids []int) error {
	if C.frozen {
		return Error{"can't set indices of a stored collection", ErrImmutable, []string{"SetIndices"}, true}
	}
	if len(ids) != C.Len() {
		return Error{fmt.Sprintf("%d indices given for %d structures", len(ids), C.Len()), ErrValidation, []string{"SetIndices"}, true}
	}
	C.indices = append([]int(nil), ids...)
	return nil
}

//Clone returns a deep, unfrozen copy of the collection, not associated to
//any stored identity.
func (C *Collection) Clone() *Collection {
	ret := &Collection{
		cells:     append([]float64(nil), C.cells...),
		positions: append([]float64(nil), C.positions...),
		numbers:   append([]int(nil), C.numbers...),
		nframes:   append([]int(nil), C.nframes...),
		cnframes:  append([]int(nil), C.cnframes...),
		frameSize: C.frameSize,
		elements:  append([]string(nil), C.elements...),
		indices:   append([]int(nil), C.indices...),
		pbc:       append([][3]bool(nil), C.pbc...),
	}
	if C.energies != nil {
		ret.energies = append([]float64(nil), C.energies...)
	}
	return ret
}

//Store persists the collection with p and freezes it. It returns the identity given
//by the store. A frozen collection can't be stored again; Clone it first.
func (C *Collection) Store(ctx context.Context, p Persister) (string, error) {
	if C.frozen {
		return "", Error{fmt.Sprintf("collection already stored with id %s", C.id), ErrImmutable, []string{"Store"}, true}
	}
	if C.Len() == 0 {
		return "", Error{"can't store an empty collection", ErrValidation, []string{"Store"}, true}
	}
	id, err := p.Persist(ctx, C)
	if err != nil {
		return "", fmt.Errorf("structset: persisting collection: %w", err)
	}
	C.Freeze(id)
	return id, nil
}

//Freeze marks the collection as stored with the identity id. It is meant for
//provenance stores returning collections they have loaded; users should call Store.
func (C *Collection) Freeze(id string) {
	C.frozen = true
	C.id = id
}

//IsFrozen returns true if the collection has been stored, and can't be modified.
func (C *Collection) IsFrozen() bool {
	return C.frozen
}

//ID returns the identity assigned by the provenance store, or an empty string
//if the collection is not stored.
func (C *Collection) ID() string {
	return C.id
}

func (C *Collection) String() string {
	state := "mutable"
	if C.frozen {
		state = "frozen " + C.id
	}
	return fmt.Sprintf("Collection: %d structures, %d frames of %d atoms, elements %s, energies: %t (%s)",
		C.Len(), C.Frames(), C.frameSize, elementsString(C.elements), C.HasEnergies(), state)
}
