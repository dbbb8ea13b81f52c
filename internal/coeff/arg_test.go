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
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgFromJSON(t *testing.T) {
	tcs := []struct {
		in   string
		want Arg
	}{
		{`"G"`, String("G")},
		{`0.25`, Number(0.25)},
		{`"0.25"`, String("0.25")},
		{`[0.1, 0.2]`, Numbers(0.1, 0.2)},
		{`["G", "BP-RP"]`, Strings("G", "BP-RP")},
		{`[]`, Numbers()},
		{`null`, Arg{}},
	}
	for _, tc := range tcs {
		var got Arg
		require.NoError(t, json.Unmarshal([]byte(tc.in), &got), tc.in)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestArgFromJSONInvalid(t *testing.T) {
	for _, in := range []string{`true`, `{"a":1}`, `[1, "G"]`, `["G", 1]`, `[[1]]`, `[true]`} {
		var got Arg
		err := json.Unmarshal([]byte(in), &got)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
}

func TestRequestFromYAML(t *testing.T) {
	doc := `
band: [G, BP, RP]
ebv: 0.2
teff: [5000, 6000, 7000]
mode: func
`
	var req Request
	require.NoError(t, yaml.Unmarshal([]byte(doc), &req))
	assert.Equal(t, Strings("G", "BP", "RP"), req.Band)
	assert.Equal(t, Number(0.2), req.EBV)
	assert.Equal(t, Numbers(5000, 6000, 7000), req.Teff)
	assert.False(t, req.BPRP.Present())
	assert.Equal(t, ModeFunc, req.Mode)

	res, err := NewTable().Evaluate(req)
	require.NoError(t, err)
	assert.Len(t, res.Values, 3)
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{Values: []float64{0.183}, Scalar: true})
	require.NoError(t, err)
	assert.JSONEq(t, `0.183`, string(b))

	b, err = json.Marshal(Result{Values: []float64{0.183}})
	require.NoError(t, err)
	assert.JSONEq(t, `[0.183]`, string(b))
}

func TestParseArg(t *testing.T) {
	a, err := ParseArg("", true)
	require.NoError(t, err)
	assert.False(t, a.Present())

	a, err = ParseArg("0.3", true)
	require.NoError(t, err)
	assert.Equal(t, Number(0.3), a)

	a, err = ParseArg("4000, 5000,6000", true)
	require.NoError(t, err)
	assert.Equal(t, Numbers(4000, 5000, 6000), a)

	a, err = ParseArg("G, BP-RP", false)
	require.NoError(t, err)
	assert.Equal(t, Strings("G", "BP-RP"), a)

	_, err = ParseArg("0.1,x", true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNormalizeBroadcast(t *testing.T) {
	n, err := Normalize(String("G"), Number(0.1), Numbers(4000, 5000, 6000))
	require.NoError(t, err)
	assert.False(t, n.Scalar)
	assert.Equal(t, []string{"G", "G", "G"}, n.Bands)
	assert.Equal(t, []float64{0.1, 0.1, 0.1}, n.X)
	assert.Equal(t, []float64{4000, 5000, 6000}, n.Y)

	n, err = Normalize(String("G"), Number(0.1), Number(4000))
	require.NoError(t, err)
	assert.True(t, n.Scalar)
	assert.Len(t, n.Bands, 1)

	_, err = Normalize(String("G"), Arg{}, Number(4000))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
