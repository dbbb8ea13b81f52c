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

import "errors"

// Errors returned by the evaluator. Callers match them with errors.Is,
// the returned errors wrap them with details on the offending input.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrShapeMismatch = errors.New("input sequences must be the same size")
	ErrUnknownBand   = errors.New("wrong band name was entered")
	ErrDisjointRange = errors.New("the temperature ranges available in the two bands do not overlap")
	ErrMissingInput  = errors.New("missing input value")
	ErrInvalidMode   = errors.New("invalid mode")
)
