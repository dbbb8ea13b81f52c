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

// Upper bound for E(B-V). Larger values are evaluated at the bound.
// There is no lower bound, negative reddening passes through.
const MaxEBV = 0.5

// Evaluates the coefficient surface at the given reddening and effective
// temperature. Teff is clamped into the valid range and ebv to at most MaxEBV
func (e Entry) Eval(ebv, teff float64) float64 {
	t := e.Range.Clamp(teff)
	if ebv > MaxEBV {
		ebv = MaxEBV
	}
	c := e.Coeffs
	return c[1]*t*t*t + c[2]*t*t + c[3]*t + c[4]*ebv*ebv + c[5]*ebv + c[6]
}

// Evaluates parallel slices of resolved entries, reddening and temperature
func evalAll(entries []Entry, ebv, teff []float64) []float64 {
	res := make([]float64, len(entries))
	for i, e := range entries {
		res[i] = e.Eval(ebv[i], teff[i])
	}
	return res
}
