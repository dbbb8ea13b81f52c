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
	"fmt"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Coefficients of a band: the zero-order coefficient R0, followed by a..f of
// the surface a*T^3 + b*T^2 + c*T + d*E^2 + e*E + f
type Coefficients [7]float64

// Zero-order coefficient, independent of temperature and reddening
func (c Coefficients) R0() float64 { return c[0] }

// Valid effective temperature range in Kelvin, inclusive
type TempRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamps t into the range. No extrapolation beyond the boundaries
func (r TempRange) Clamp(t float64) float64 {
	if t < r.Min {
		return r.Min
	}
	if t > r.Max {
		return r.Max
	}
	return t
}

// A resolved band or color index
type Entry struct {
	Name    string       `json:"name"`
	Coeffs  Coefficients `json:"coefficients"`
	Range   TempRange    `json:"teffRange"`
	Derived bool         `json:"derived"`
}

// Separator between the two band names of a color index
const ColorSeparator = "-"

type builtin struct {
	name   string
	coeffs Coefficients
	rng    TempRange
}

// Built-in catalogue, in the order listed to users
var builtins = []builtin{
	{"FUV", Coefficients{6.973, 4.68e-10, -1.26e-05, 0.112, 6.520, -10.401, -319.943}, TempRange{7000, 10000}},
	{"NUV", Coefficients{7.293, 2.57e-12, -5.19e-07, 0.0076, -1.022, -3.608, -19.704}, TempRange{4000, 9000}},
	{"g", Coefficients{3.248, -8.98e-11, 1.72e-06, -0.0108, -0.556, -0.712, 25.885}, TempRange{4000, 8000}},
	{"r", Coefficients{2.363, -5.76e-11, 1.11e-06, -0.00704, -0.273, -0.542, 17.255}, TempRange{4000, 8000}},
	{"i", Coefficients{1.791, -3.56e-11, 6.91e-07, -0.00443, -0.417, -0.250, 11.249}, TempRange{4000, 8000}},
	{"z", Coefficients{1.398, -3.12e-11, 6e-07, -0.00381, -0.876, 0.253, 9.372}, TempRange{4000, 9000}},
	{"y", Coefficients{1.146, -2.67e-11, 5.05e-07, -0.00317, -0.957, 0.407, 7.699}, TempRange{4000, 8000}},
	{"J", Coefficients{0.748, -3.99e-12, 7.3e-08, -0.000448, 0.055, -0.176, 1.720}, TempRange{4000, 8000}},
	{"H", Coefficients{0.453, 3.85e-13, -9.67e-09, 7.91e-05, -0.366, 0.225, 0.213}, TempRange{4000, 8000}},
	{"Ks", Coefficients{0.306, 0, 0, 0, 0, 0, 0.306}, TempRange{4000, 8000}},
	{"W1", Coefficients{0.194, -7.18e-13, 1.11e-08, -5.18e-05, 0.128, -0.038, 0.261}, TempRange{4000, 8000}},
	{"W2", Coefficients{0.138, 5.4e-12, -9.97e-08, 0.000615, 0.030, 0.062, -1.149}, TempRange{4000, 8000}},
	{"W3", Coefficients{0.183, 0, 0, 0, 0, 0, 0.183}, TempRange{4000, 4500}},
	{"W4", Coefficients{0.084, 0, 0, 0, 0, 0, 0.084}, TempRange{4000, 4500}},
	{"BP", Coefficients{2.998, -1.27e-11, 2.76e-07, -0.00188, -0.673, -0.531, 7.185}, TempRange{4000, 10000}},
	{"G", Coefficients{2.364, -1.05e-11, 2.24e-07, -0.00145, -0.681, -0.381, 5.376}, TempRange{4000, 10000}},
	{"RP", Coefficients{1.737, -7.88e-12, 1.76e-07, -0.00126, -0.630, -0.057, 4.670}, TempRange{4000, 9000}},
	{"u'", Coefficients{4.500, -1.29e-10, 2.52e-06, -0.0162, 1.741, -2.760, 39.080}, TempRange{4000, 9000}},
	{"g'", Coefficients{3.452, -9.46e-11, 1.82e-06, -0.0115, 0.221, -1.210, 27.571}, TempRange{4000, 8000}},
	{"r'", Coefficients{2.400, -5.47e-11, 1.07e-06, -0.00691, -0.080, -0.568, 17.129}, TempRange{4000, 8000}},
	{"i'", Coefficients{1.799, -3.98e-11, 7.8e-07, -0.00502, -0.675, 0.020, 12.450}, TempRange{4000, 8000}},
	{"z'", Coefficients{1.299, -3.49e-11, 6.79e-07, -0.00433, -2.027, 1.144, 10.198}, TempRange{4000, 8000}},
	// calibrated directly, not the difference of the BP and RP rows
	{"BP-RP", Coefficients{1.261, -4.864e-12, 1.006e-07, -6.201e-04, -4.329e-02, -4.741e-01, 2.515}, TempRange{4000, 9000}},
}

// A lookup table of band coefficients and temperature ranges.
// Derived color indices are resolved on first use and cached for the
// lifetime of the table. Safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// Creates a new table seeded with the built-in catalogue
func NewTable() *Table {
	t := &Table{entries: make(map[string]Entry, len(builtins)*2)}
	for _, b := range builtins {
		t.entries[b.name] = Entry{Name: b.name, Coeffs: b.coeffs, Range: b.rng}
	}
	return t
}

// The table shared by package-level functions
var Default = NewTable()

// Returns the built-in band names in catalogue order
func (t *Table) Bands() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

// Returns the sorted names of the derived color indices resolved so far
func (t *Table) Derived() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := []string{}
	for name, e := range t.entries {
		if e.Derived {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Looks up a name without resolving derived colors
func (t *Table) Lookup(name string) (e Entry, ok bool) {
	t.mu.RLock()
	e, ok = t.entries[name]
	t.mu.RUnlock()
	return e, ok
}

// Resolves a band or color index name. Names not in the table must be of
// the form B1-B2 with two known bands with overlapping temperature ranges;
// the derived entry is cached on success.
func (t *Table) Resolve(name string) (Entry, error) {
	name = strings.TrimSpace(name)
	if e, ok := t.Lookup(name); ok {
		return e, nil
	}

	parts := strings.Split(name, ColorSeparator)
	if len(parts) != 2 {
		return Entry{}, fmt.Errorf("%w: '%s'", ErrUnknownBand, name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[name]; ok { // resolved by a concurrent caller
		return e, nil
	}
	b1, ok1 := t.entries[parts[0]]
	b2, ok2 := t.entries[parts[1]]
	if !ok1 || !ok2 {
		return Entry{}, fmt.Errorf("%w: '%s'", ErrUnknownBand, name)
	}

	e := Entry{Name: name, Derived: true}
	floats.SubTo(e.Coeffs[:], b1.Coeffs[:], b2.Coeffs[:])
	e.Range = TempRange{
		Min: floats.Max([]float64{b1.Range.Min, b2.Range.Min}),
		Max: floats.Min([]float64{b1.Range.Max, b2.Range.Max}),
	}
	if e.Range.Min > e.Range.Max {
		return Entry{}, fmt.Errorf("%w: '%s' needs %s in [%g,%g] and %s in [%g,%g]", ErrDisjointRange, name,
			parts[0], b1.Range.Min, b1.Range.Max, parts[1], b2.Range.Min, b2.Range.Max)
	}
	t.entries[name] = e
	return e, nil
}

// Resolves a slice of names, failing on the first invalid one
func (t *Table) ResolveAll(names []string) ([]Entry, error) {
	entries := make([]Entry, len(names))
	for i, name := range names {
		e, err := t.Resolve(name)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return entries, nil
}
