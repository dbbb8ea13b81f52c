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
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

// evaluates the unclamped surface, independent of Entry.Eval
func surface(c Coefficients, ebv, teff float64) float64 {
	return c[1]*math.Pow(teff, 3) + c[2]*math.Pow(teff, 2) + c[3]*teff + c[4]*math.Pow(ebv, 2) + c[5]*ebv + c[6]
}

func TestSimpleModeReturnsR0(t *testing.T) {
	tab := NewTable()
	for _, b := range builtins {
		res, err := tab.Evaluate(Request{Band: String(b.name), EBV: Number(0.3), Teff: Number(12345), Mode: ModeSimple})
		require.NoError(t, err, b.name)
		assert.True(t, res.Scalar, b.name)
		assert.Equal(t, b.coeffs[0], res.Value(), b.name)
	}

	res, err := tab.Evaluate(Request{Band: String("W3"), EBV: Number(0.1), Teff: Number(5000), Mode: ModeSimple})
	require.NoError(t, err)
	assert.Equal(t, 0.183, res.Value())
}

func TestSimpleModeSequence(t *testing.T) {
	res, err := NewTable().Evaluate(Request{Band: Strings("G", "BP", "G-RP"), Mode: ModeSimple})
	require.NoError(t, err)
	assert.False(t, res.Scalar)
	if diff := cmp.Diff([]float64{2.364, 2.998, 2.364 - 1.737}, res.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("simple values mismatch (-want +got):\n%s", diff)
	}
}

func TestFuncModeSolarG(t *testing.T) {
	res, err := NewTable().Evaluate(Request{Band: String("G"), EBV: Number(0.2), Teff: Number(5778)})
	require.NoError(t, err)
	require.True(t, res.Scalar)
	require.Len(t, res.Values, 1)
	assert.InDelta(t, 2.3473118210040003, res.Value(), 1e-12)

	c := Coefficients{2.364, -1.05e-11, 2.24e-07, -0.00145, -0.681, -0.381, 5.376}
	assert.InDelta(t, surface(c, 0.2, 5778), res.Value(), 1e-12)
}

func TestFuncModeInRangeMatchesSurface(t *testing.T) {
	tab := NewTable()
	rng := fastrand.RNG{}
	for _, b := range builtins {
		for i := 0; i < 100; i++ {
			teff := b.rng.Min + (b.rng.Max-b.rng.Min)*float64(rng.Uint32n(1001))/1000
			ebv := float64(rng.Uint32n(501)) / 1000
			got, err := tab.Evaluate(Request{Band: String(b.name), EBV: Number(ebv), Teff: Number(teff)})
			require.NoError(t, err)
			want := surface(b.coeffs, ebv, teff)
			if math.Abs(got.Value()-want) > 1e-9*math.Max(1, math.Abs(want)) {
				t.Errorf("%s ebv=%g teff=%g got %g; want %g", b.name, ebv, teff, got.Value(), want)
			}
		}
	}
}

func TestClamping(t *testing.T) {
	tab := NewTable()
	for _, b := range builtins {
		e, err := tab.Resolve(b.name)
		require.NoError(t, err)
		assert.Equal(t, e.Eval(0.2, b.rng.Min), e.Eval(0.2, b.rng.Min-100), b.name)
		assert.Equal(t, e.Eval(0.2, b.rng.Max), e.Eval(0.2, b.rng.Max+100), b.name)
		assert.Equal(t, e.Eval(0.5, 6000), e.Eval(0.6, 6000), b.name)
	}
}

func TestNegativeReddeningIsNotClamped(t *testing.T) {
	e, err := NewTable().Resolve("g")
	require.NoError(t, err)
	assert.InDelta(t, surface(e.Coeffs, -0.2, 6000), e.Eval(-0.2, 6000), 1e-12)
	assert.NotEqual(t, e.Eval(0, 6000), e.Eval(-0.2, 6000))
}

func TestBPRPBuiltin(t *testing.T) {
	tab := NewTable()
	res, err := tab.Evaluate(Request{Band: String("BP-RP"), EBV: Number(0.3), Teff: Number(4000)})
	require.NoError(t, err)

	e, ok := tab.Lookup("BP-RP")
	require.True(t, ok)
	assert.False(t, e.Derived)
	assert.Equal(t, TempRange{4000, 9000}, e.Range)
	assert.InDelta(t, surface(e.Coeffs, 0.3, 4000), res.Value(), 1e-12)
	assert.Empty(t, tab.Derived())
}

func TestDerivedColor(t *testing.T) {
	tab := NewTable()
	g, _ := tab.Lookup("G")
	rp, _ := tab.Lookup("RP")

	e, err := tab.Resolve("G-RP")
	require.NoError(t, err)
	assert.True(t, e.Derived)
	for i := range e.Coeffs {
		assert.Equal(t, g.Coeffs[i]-rp.Coeffs[i], e.Coeffs[i], "coefficient %d", i)
	}
	assert.Equal(t, TempRange{4000, 9000}, e.Range)
	assert.Equal(t, []string{"G-RP"}, tab.Derived())

	// idempotent
	again, err := tab.Resolve("G-RP")
	require.NoError(t, err)
	assert.Equal(t, e, again)
	assert.Equal(t, []string{"G-RP"}, tab.Derived())

	e, err = tab.Resolve("FUV-NUV")
	require.NoError(t, err)
	assert.Equal(t, TempRange{7000, 9000}, e.Range)
}

func TestDerivedColorRangeClamp(t *testing.T) {
	tab := NewTable()
	e, err := tab.Resolve("W1-W3")
	require.NoError(t, err)
	assert.Equal(t, TempRange{4000, 4500}, e.Range)

	res, err := tab.Evaluate(Request{Band: String("W1-W3"), EBV: Number(0.1), Teff: Numbers(4500, 6000)})
	require.NoError(t, err)
	assert.Equal(t, res.Values[0], res.Values[1])
}

func TestBandErrors(t *testing.T) {
	tab := NewTable()
	tcs := []struct {
		band string
		err  error
	}{
		{"Q", ErrUnknownBand},
		{"G-BP-RP", ErrUnknownBand},
		{"G-Q", ErrUnknownBand},
		{"G-", ErrUnknownBand},
		{"", ErrUnknownBand},
		{"FUV-W3", ErrDisjointRange},
		{"W4-FUV", ErrDisjointRange},
	}
	for _, tc := range tcs {
		_, err := tab.Evaluate(Request{Band: String(tc.band), EBV: Number(0.1), Teff: Number(5000)})
		assert.ErrorIs(t, err, tc.err, tc.band)
	}
	assert.Empty(t, tab.Derived())
}

func TestScalarAndSequenceShapes(t *testing.T) {
	tab := NewTable()
	tcs := []struct {
		name   string
		req    Request
		length int
		scalar bool
	}{
		{"all scalar", Request{Band: String("G"), EBV: Number(0.1), Teff: Number(5000)}, 1, true},
		{"ebv sequence", Request{Band: String("G"), EBV: Numbers(0.1, 0.2, 0.3), Teff: Number(5000)}, 3, false},
		{"teff sequence", Request{Band: String("G"), EBV: Number(0.1), Teff: Numbers(5000, 6000)}, 2, false},
		{"band sequence", Request{Band: Strings("G", "BP", "RP", "J"), EBV: Number(0.1), Teff: Number(5000)}, 4, false},
		{"single element sequence", Request{Band: String("G"), EBV: Numbers(0.1), Teff: Number(5000)}, 1, false},
		{"all sequences", Request{Band: Strings("G", "BP"), EBV: Numbers(0.1, 0.2), BPRP: Numbers(0.8, 1.0)}, 2, false},
		{"numeric strings", Request{Band: String("G"), EBV: String("0.1"), Teff: String("5000")}, 1, true},
	}
	for _, tc := range tcs {
		res, err := tab.Evaluate(tc.req)
		require.NoError(t, err, tc.name)
		assert.Len(t, res.Values, tc.length, tc.name)
		assert.Equal(t, tc.scalar, res.Scalar, tc.name)
	}
}

func TestShapeMismatch(t *testing.T) {
	_, err := NewTable().Evaluate(Request{
		Band: String("G"),
		EBV:  Numbers(0.1, 0.2, 0.3),
		Teff: Numbers(4000, 5000, 6000, 7000, 8000),
	})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewTable().Evaluate(Request{Band: Strings("G", "BP"), EBV: Numbers(0.1, 0.2, 0.3), Teff: Number(5000)})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	// unknown bands are reported before mismatched lengths
	_, err = NewTable().Evaluate(Request{Band: Strings("G", "Q"), EBV: Numbers(0.1, 0.2, 0.3), Teff: Number(5000)})
	assert.ErrorIs(t, err, ErrUnknownBand)
	assert.NotErrorIs(t, err, ErrShapeMismatch)
}

func TestInvalidAndMissingInput(t *testing.T) {
	tab := NewTable()
	_, err := tab.Evaluate(Request{Band: Number(3), EBV: Number(0.1), Teff: Number(5000)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tab.Evaluate(Request{Band: String("G"), EBV: String("lots"), Teff: Number(5000)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tab.Evaluate(Request{Band: String("G"), EBV: Number(0.1)})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = tab.Evaluate(Request{Band: String("G"), Teff: Number(5000)})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = tab.Evaluate(Request{Band: String("G"), EBV: Number(0.1), Teff: Numbers()})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = tab.Evaluate(Request{Band: String("G"), EBV: Number(0.1), Teff: Number(5000), Mode: "fast"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestColorPath(t *testing.T) {
	tab := NewTable()
	tcs := []struct {
		bprp, ebv, teff, g float64
	}{
		{0.9, 0.1, 5805.615693467969, 2.408273637216175},
		{1.2, 0.3, 5606.018527794831, 2.261510796642662},
		{0.5, 0.0, 6699.228514164375, 2.55824237826356},
		// first pass dereddens with the raw E(B-V), the second with E(B-V) limited to 0.5
		{1.5, 0.8, 5401.052597550816, 2.063771384298809},
		{1.5, 0.5, 5301.357670042063, 2.059255321347373},
		// negative reddening passes through both passes
		{0.9, -0.1, 5090.974615552953, 2.445559909977996},
	}
	for _, tc := range tcs {
		teff, err := tab.EstimateTeff([]float64{tc.ebv}, []float64{tc.bprp})
		require.NoError(t, err)
		assert.InDelta(t, tc.teff, teff[0], 1e-6, "bprp=%g ebv=%g", tc.bprp, tc.ebv)

		res, err := tab.Evaluate(Request{Band: String("G"), EBV: Number(tc.ebv), BPRP: Number(tc.bprp)})
		require.NoError(t, err)
		assert.True(t, res.Scalar)
		assert.InDelta(t, tc.g, res.Value(), 1e-9, "bprp=%g ebv=%g", tc.bprp, tc.ebv)
		assert.Equal(t, teff, res.Teff)

		// the same temperature given directly yields the same coefficient
		direct, err := tab.Evaluate(Request{Band: String("G"), EBV: Number(tc.ebv), Teff: Number(teff[0])})
		require.NoError(t, err)
		assert.Equal(t, direct.Value(), res.Value())
		assert.Nil(t, direct.Teff)
	}
}

func TestTeffTakesPrecedence(t *testing.T) {
	tab := NewTable()
	both, err := tab.Evaluate(Request{Band: String("G"), EBV: Number(0.2), Teff: Number(5778), BPRP: Number(3)})
	require.NoError(t, err)
	teffOnly, err := tab.Evaluate(Request{Band: String("G"), EBV: Number(0.2), Teff: Number(5778)})
	require.NoError(t, err)
	assert.Equal(t, teffOnly.Value(), both.Value())
}

func TestTeffFromBPRP0(t *testing.T) {
	assert.InDelta(t, 9693.00903561, TeffFromBPRP0(0), 1e-9)
	assert.InDelta(t, 5661.755689962538, TeffFromBPRP0(0.82), 1e-6)
}

func TestPackageLevelHelpers(t *testing.T) {
	v, err := Coefficient("G", 0.2, 5778)
	require.NoError(t, err)
	assert.InDelta(t, 2.3473118210040003, v, 1e-12)

	v, err = CoefficientFromColor("G", 0.1, 0.9)
	require.NoError(t, err)
	assert.InDelta(t, 2.408273637216175, v, 1e-9)

	v, err = Simple("Ks")
	require.NoError(t, err)
	assert.Equal(t, 0.306, v)

	_, err = Simple("Q")
	assert.True(t, errors.Is(err, ErrUnknownBand))
}

func TestConcurrentResolve(t *testing.T) {
	tab := NewTable()
	names := []string{"G-RP", "BP-G", "g-r", "J-Ks", "u'-g'"}
	var wg sync.WaitGroup
	results := make([][]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := tab.Evaluate(Request{Band: Strings(names...), EBV: Number(0.2), Teff: Number(6000)})
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = res.Values
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
	assert.ElementsMatch(t, names, tab.Derived())
}
