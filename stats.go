/*
 * stats.go, part of structset.
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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Stats summarizes the energies of a collection.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func (S Stats) String() string {
	return fmt.Sprintf("n=%d mean=%.6f std=%.6f min=%.6f max=%.6f", S.N, S.Mean, S.StdDev, S.Min, S.Max)
}

//EnergyStats returns a summary of the energies in the collection. It returns
//an error if the collection has no energies.
func EnergyStats(C *Collection) (Stats, error) {
	e := C.Energies()
	if len(e) == 0 {
		return Stats{}, Error{"collection has no energies", ErrValidation, []string{"EnergyStats"}, true}
	}
	ret := Stats{N: len(e), Min: floats.Min(e), Max: floats.Max(e)}
	if len(e) == 1 {
		ret.Mean = e[0]
		return ret, nil
	}
	ret.Mean, ret.StdDev = stat.MeanStdDev(e, nil)
	return ret, nil
}

//Concentration returns, for each structure, the fraction of its atoms
//that are of the element with the given symbol.
func (C *Collection) Concentration(symbol string) ([]float64, error) {
	z, err := AtomicNumber(symbol)
	if err != nil {
		return nil, errDecorate(err, "Concentration")
	}
	ret := make([]float64, C.Len())
	for i := range ret {
		start := C.cnframes[i] * C.frameSize
		n := C.nframes[i] * C.frameSize
		count := 0
		for _, v := range C.numbers[start : start+n] {
			if v == z {
				count++
			}
		}
		ret[i] = float64(count) / float64(n)
	}
	return ret, nil
}
