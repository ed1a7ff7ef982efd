/*
 * gonum.go, part of structset.
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

//gonum.go contains the Matrix type and most of what is needed to handle it
//through gonum's mat package.

package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const cols int = 3

//Matrix is a set of vectors in 3D space, backed by a gonum Dense.
//Within the package it is understood that a "vector" is a row vector, i.e. the
//cartesian coordinates of a point in 3D space, or one lattice vector of a cell.
type Matrix struct {
	*mat.Dense
}

//Matrix2Dense returns the Dense underlying A.
func Matrix2Dense(A *Matrix) *mat.Dense {
	return A.Dense
}

//Dense2Matrix wraps A in a Matrix. It panics if A doesn't have 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	if _, c := A.Dims(); c != cols {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//The data slice is used as backing storage, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	l := len(data)
	if l == 0 {
		return nil, Error{"Input slice is empty", []string{"NewMatrix"}, true}
	}
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d: %d", l, cols, l%cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	if vecs <= 0 {
		panic(ErrShape)
	}
	return &Matrix{mat.NewDense(vecs, cols, nil)}
}

//NVecs returns the number of (row) vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != cols {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns a view of the ith vector of F. Changes in the view
//are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	return F.View(i, 0, 1, cols)
}

//View returns a view of F starting from i,j and spanning r rows and
//c columns. Changes in the view are reflected in F and vice-versa.
func (F *Matrix) View(i, j, r, c int) *Matrix {
	ret := F.Dense.Slice(i, i+r, j, j+c).(*mat.Dense)
	return &Matrix{ret}
}

//Vec returns a copy of the ith vector of F as an array.
func (F *Matrix) Vec(i int) [3]float64 {
	var v [3]float64
	for j := range v {
		v[j] = F.At(i, j)
	}
	return v
}

//SetVec sets the ith vector of F to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	for j, val := range v {
		F.Set(i, j, val)
	}
}

//SetMatrix puts the matrix A in the receiver starting from the ith row and jth col
//of the receiver.
func (F *Matrix) SetMatrix(i, j int, A *Matrix) {
	ar, ac := A.Dims()
	if ar+i > F.NVecs() || ac+j > cols {
		panic(ErrShape)
	}
	for k := 0; k < ar; k++ {
		for l := 0; l < ac; l++ {
			F.Set(i+k, j+l, A.At(k, l))
		}
	}
}

//Data returns a row-major copy of the elements of F. It works
//also for views, where the raw storage is not contiguous.
func (F *Matrix) Data(dest ...[]float64) []float64 {
	r := F.NVecs()
	var ret []float64
	if len(dest) > 0 && len(dest[0]) >= r*cols {
		ret = dest[0][:r*cols]
	} else {
		ret = make([]float64, r*cols)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			ret[i*cols+j] = F.At(i, j)
		}
	}
	return ret
}

//Clone returns a deep copy of F.
func (F *Matrix) Clone() *Matrix {
	return &Matrix{mat.DenseCopyOf(F.Dense)}
}

//Stack puts A stacked over B in F
func (F *Matrix) Stack(A, B *Matrix) {
	ar := A.NVecs()
	br := B.NVecs()
	if F.NVecs() < ar+br {
		panic(ErrShape)
	}
	F.SetMatrix(0, 0, A)
	F.SetMatrix(ar, 0, B)
}

//Cart puts in F the cartesian form of the vectors in A, which are given in
//the frame of the 3 vectors of basis. It can be used both to
//transform fractional coordinates given a cell, or to change
//from a non-cartesian coordinate system.
func (F *Matrix) Cart(A, basis *Matrix) {
	if basis.NVecs() != 3 {
		panic(ErrShape)
	}
	F.Dense.Mul(A.Dense, basis.Dense)
}

//Det returns the determinant of F, which must be 3x3.
func (F *Matrix) Det() float64 {
	if F.NVecs() != 3 {
		panic(ErrDeterminant)
	}
	return mat.Det(F.Dense)
}

func (F *Matrix) String() string {
	r := F.NVecs()
	lines := make([]string, 0, r)
	for i := 0; i < r; i++ {
		lines = append(lines, fmt.Sprintf("%9.4f %9.4f %9.4f", F.At(i, 0), F.At(i, 1), F.At(i, 2)))
	}
	return "[" + strings.Join(lines, "\n ") + "]"
}

//Errors

//Error is the error type of the package. It has the same
//methods as the structset.Error interface, but doesn't import it,
//to avoid a circular import.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("structset/v3: A Matrix should have 3 columns")
	ErrDeterminant  = PanicMsg("structset/v3: Determinants are only available for 3x3 matrices")
	ErrShape        = PanicMsg("structset/v3: Dimension mismatch")
)
