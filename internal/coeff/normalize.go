// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package coeff

import "fmt"

// Band names and two numeric inputs broadcast to a common length
type Normalized struct {
	Bands  []string
	X      []float64
	Y      []float64
	Scalar bool // all three inputs were scalars; unwrap the result
}

// Validates the band argument and two numeric arguments, and broadcasts
// scalars to the common length of the sequences. If all three are scalars,
// the result has length one and Scalar is set.
func Normalize(band, x, y Arg) (n Normalized, err error) {
	args := [3]Arg{band, x, y}
	length := -1
	for i, a := range args {
		switch a.Kind {
		case ArgNumber, ArgString:
		case ArgNumbers, ArgStrings:
			if length >= 0 && a.Len() != length {
				return Normalized{}, fmt.Errorf("%w: argument %d has %d elements, expected %d", ErrShapeMismatch, i, a.Len(), length)
			}
			length = a.Len()
		default:
			return Normalized{}, fmt.Errorf("%w: argument %d is %s", ErrInvalidInput, i, a.Kind)
		}
	}
	if length < 0 {
		length = 1
		n.Scalar = true
	}

	if n.Bands, err = band.names(length); err != nil {
		return Normalized{}, err
	}
	if n.X, err = x.values(length); err != nil {
		return Normalized{}, err
	}
	if n.Y, err = y.values(length); err != nil {
		return Normalized{}, err
	}
	return n, nil
}
