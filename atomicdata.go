/*
 * atomicdata.go, part of structset.
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

import "fmt"

//Chemical symbols indexed by atomic number. The 0 element
//is a placeholder, as there is no atomic number 0.
var symbols = [...]string{
	"X",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra", "Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf",
	"Es", "Fm", "Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

//A map for going from a symbol to its atomic number.
//Filled from symbols at init.
var symbolNumber map[string]int

func init() {
	symbolNumber = make(map[string]int, len(symbols))
	for z, s := range symbols[1:] {
		symbolNumber[s] = z + 1
	}
}

//MaxAtomicNumber is the largest atomic number known to the package.
const MaxAtomicNumber = len(symbols) - 1

//Symbol returns the chemical symbol for the atomic number z.
func Symbol(z int) (string, error) {
	if z < 1 || z > MaxAtomicNumber {
		return "", Error{fmt.Sprintf("unknown atomic number %d", z), ErrValidation, []string{"Symbol"}, true}
	}
	return symbols[z], nil
}

//AtomicNumber returns the atomic number for the chemical symbol s.
//Symbols are case sensitive ("Co" is cobalt, "CO" is an error).
func AtomicNumber(s string) (int, error) {
	z, ok := symbolNumber[s]
	if !ok {
		return 0, Error{fmt.Sprintf("unknown chemical symbol %q", s), ErrValidation, []string{"AtomicNumber"}, true}
	}
	return z, nil
}
