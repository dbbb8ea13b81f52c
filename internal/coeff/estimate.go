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

import "math"

// Coefficients of the quartic fit of Teff over the intrinsic color (BP-RP)0,
// highest degree first
var teffFromBPRP0 = []float64{1187.26193963, -4925.6478914, 8268.06749031, -9038.59055765, 9693.00903561}

// Name of the color index used to deredden BP-RP
const bpRP = "BP-RP"

// Evaluates a polynomial with coefficients given highest degree first
func polyval(p []float64, x float64) float64 {
	y := 0.0
	for _, c := range p {
		y = y*x + c
	}
	return y
}

// Converts an intrinsic (BP-RP)0 color into effective temperature in Kelvin
func TeffFromBPRP0(bprp0 float64) float64 { return polyval(teffFromBPRP0, bprp0) }

// Estimates effective temperatures from observed BP-RP colors and E(B-V).
// The color is first dereddened with the zero-order BP-RP coefficient,
// then once more with the coefficient at the resulting temperature. The
// second pass uses E(B-V) limited to MaxEBV, like the coefficient itself.
func (t *Table) EstimateTeff(ebv, bprp []float64) ([]float64, error) {
	e, err := t.Resolve(bpRP)
	if err != nil {
		return nil, err
	}
	teff := make([]float64, len(bprp))
	for i := range bprp {
		t0 := TeffFromBPRP0(bprp[i] - e.Coeffs.R0()*ebv[i])
		r := e.Eval(ebv[i], t0)
		teff[i] = TeffFromBPRP0(bprp[i] - r*math.Min(ebv[i], MaxEBV))
	}
	return teff, nil
}
