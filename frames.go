/*
 * frames.go, part of structset.
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

//gcd returns the greatest common divisor of a and b, both positive.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

//FrameSize returns the size of the largest frame that tiles all the
//structures with the given atom counts, i.e. the greatest common divisor
//of the counts. It returns an error if counts is empty or if a count is not positive.
func FrameSize(counts []int) (int, error) {
	if len(counts) == 0 {
		return 0, Error{"no atom counts given", ErrValidation, []string{"FrameSize"}, true}
	}
	ret := 0
	for i, v := range counts {
		if v <= 0 {
			return 0, Error{fmt.Sprintf("atom count %d of structure %d is not positive", v, i), ErrValidation, []string{"FrameSize"}, true}
		}
		if ret == 0 {
			ret = v
			continue
		}
		ret = gcd(ret, v)
	}
	return ret, nil
}

//prefixSum returns the exclusive prefix sum of n, i.e. ret[0]=0, ret[i]=ret[i-1]+n[i-1].
func prefixSum(n []int) []int {
	ret := make([]int, len(n))
	for i := 1; i < len(n); i++ {
		ret[i] = ret[i-1] + n[i-1]
	}
	return ret
}
