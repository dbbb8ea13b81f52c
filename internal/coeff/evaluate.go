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

import (
	"encoding/json"
	"fmt"
)

// Calculation mode
type Mode string

const (
	ModeFunc   Mode = "func"   // coefficients as functions of Teff and E(B-V)
	ModeSimple Mode = "simple" // single value coefficients, ignoring Teff and E(B-V)
)

// A request for extinction or reddening coefficients. Band is a band name or
// a color index B1-B2, EBV the reddening E(B-V), BPRP the observed BP-RP color
// and Teff the effective temperature in Kelvin. Func mode needs EBV and one of
// Teff or BPRP; Teff takes precedence.
type Request struct {
	Band Arg  `json:"band" yaml:"band"`
	EBV  Arg  `json:"ebv,omitempty" yaml:"ebv,omitempty"`
	BPRP Arg  `json:"bpRp,omitempty" yaml:"bpRp,omitempty"`
	Teff Arg  `json:"teff,omitempty" yaml:"teff,omitempty"`
	Mode Mode `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// Coefficients for a request. If Scalar is set, Values has exactly one element
// and the request was made with scalars only. Teff holds the temperatures
// estimated from BP-RP, and is nil when Teff was given.
type Result struct {
	Values []float64
	Scalar bool
	Teff   []float64
}

// Returns the single value of a scalar result, or the first value
func (r Result) Value() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[0]
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Scalar && len(r.Values) == 1 {
		return json.Marshal(r.Values[0])
	}
	if r.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Values)
}

// Evaluates a request against the table
func (t *Table) Evaluate(req Request) (Result, error) {
	switch req.Mode {
	case ModeSimple:
		return t.evaluateSimple(req.Band)
	case ModeFunc, "":
		return t.evaluateFunc(req)
	}
	return Result{}, fmt.Errorf("%w: '%s', expected %s or %s", ErrInvalidMode, req.Mode, ModeFunc, ModeSimple)
}

func (t *Table) evaluateSimple(band Arg) (Result, error) {
	names, err := band.names(1)
	if err != nil {
		return Result{}, err
	}
	entries, err := t.ResolveAll(names)
	if err != nil {
		return Result{}, err
	}
	res := Result{Values: make([]float64, len(entries)), Scalar: band.Kind == ArgString}
	for i, e := range entries {
		res.Values[i] = e.Coeffs.R0()
	}
	return res, nil
}

func (t *Table) evaluateFunc(req Request) (Result, error) {
	names, err := req.Band.names(1)
	if err != nil {
		return Result{}, err
	}
	entries, err := t.ResolveAll(names)
	if err != nil {
		return Result{}, err
	}
	if !req.EBV.Present() {
		return Result{}, fmt.Errorf("%w: E(B-V) is required", ErrMissingInput)
	}

	var n Normalized
	var teff []float64
	switch {
	case req.Teff.Present():
		if n, err = Normalize(req.Band, req.EBV, req.Teff); err != nil {
			return Result{}, err
		}
		teff = n.Y
	case req.BPRP.Present():
		if n, err = Normalize(req.Band, req.EBV, req.BPRP); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("%w: need Teff or BP-RP", ErrMissingInput)
	}

	if len(entries) < len(n.Bands) { // single band broadcast over the inputs
		e := entries[0]
		entries = make([]Entry, len(n.Bands))
		for i := range entries {
			entries[i] = e
		}
	}
	res := Result{Scalar: n.Scalar}
	if teff == nil {
		if teff, err = t.EstimateTeff(n.X, n.Y); err != nil {
			return Result{}, err
		}
		res.Teff = teff
	}
	res.Values = evalAll(entries, n.X, teff)
	return res, nil
}

// Evaluates a request against the default table
func Evaluate(req Request) (Result, error) { return Default.Evaluate(req) }

// Returns the coefficient of a band at given E(B-V) and Teff
func Coefficient(band string, ebv, teff float64) (float64, error) {
	r, err := Default.Evaluate(Request{Band: String(band), EBV: Number(ebv), Teff: Number(teff), Mode: ModeFunc})
	return r.Value(), err
}

// Returns the coefficient of a band at given E(B-V) and observed BP-RP color
func CoefficientFromColor(band string, ebv, bprp float64) (float64, error) {
	r, err := Default.Evaluate(Request{Band: String(band), EBV: Number(ebv), BPRP: Number(bprp), Mode: ModeFunc})
	return r.Value(), err
}

// Returns the single value coefficient of a band
func Simple(band string) (float64, error) {
	r, err := Default.Evaluate(Request{Band: String(band), Mode: ModeSimple})
	return r.Value(), err
}
