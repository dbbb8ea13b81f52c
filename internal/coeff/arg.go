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
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Kind of an input argument
type ArgKind int

const (
	ArgNone    ArgKind = iota // not supplied
	ArgNumber                 // scalar number
	ArgString                 // scalar string
	ArgNumbers                // sequence of numbers
	ArgStrings                // sequence of strings
)

func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "none"
	case ArgNumber:
		return "number"
	case ArgString:
		return "string"
	case ArgNumbers:
		return "numbers"
	case ArgStrings:
		return "strings"
	}
	return fmt.Sprintf("ArgKind(%d)", int(k))
}

// An input argument: a scalar or a sequence of numbers or strings.
// The zero value is an argument which was not supplied.
type Arg struct {
	Kind    ArgKind
	Number  float64
	String  string
	Numbers []float64
	Strings []string
}

func Number(v float64) Arg { return Arg{Kind: ArgNumber, Number: v} }
func String(s string) Arg { return Arg{Kind: ArgString, String: s} }
func Numbers(vs ...float64) Arg { return Arg{Kind: ArgNumbers, Numbers: vs} }
func Strings(ss ...string) Arg { return Arg{Kind: ArgStrings, Strings: ss} }

// Returns true if the argument was supplied. Empty sequences count as absent
func (a Arg) Present() bool {
	switch a.Kind {
	case ArgNone:
		return false
	case ArgNumbers:
		return len(a.Numbers) > 0
	case ArgStrings:
		return len(a.Strings) > 0
	}
	return true
}

// Returns true for sequence kinds
func (a Arg) IsSequence() bool { return a.Kind == ArgNumbers || a.Kind == ArgStrings }

// Length of a sequence, or 1 for scalars
func (a Arg) Len() int {
	switch a.Kind {
	case ArgNumbers:
		return len(a.Numbers)
	case ArgStrings:
		return len(a.Strings)
	case ArgNone:
		return 0
	}
	return 1
}

// Classifies a dynamically typed value, as produced by JSON or YAML decoders,
// into an argument. Nil becomes ArgNone.
func ArgFromValue(v interface{}) (Arg, error) {
	switch x := v.(type) {
	case nil:
		return Arg{}, nil
	case Arg:
		return x, nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Arg{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Number(f), nil
	case string:
		return String(x), nil
	case []float64:
		return Numbers(x...), nil
	case []string:
		return Strings(x...), nil
	case []interface{}:
		return argFromSlice(x)
	}
	return Arg{}, fmt.Errorf("%w: cannot use %T as number, string or sequence", ErrInvalidInput, v)
}

// Classifies a heterogeneous slice. All elements must be scalars of one kind
func argFromSlice(xs []interface{}) (Arg, error) {
	if len(xs) == 0 {
		return Numbers(), nil
	}
	first, err := ArgFromValue(xs[0])
	if err != nil {
		return Arg{}, err
	}
	switch first.Kind {
	case ArgNumber:
		vs := make([]float64, len(xs))
		for i, x := range xs {
			a, err := ArgFromValue(x)
			if err != nil {
				return Arg{}, err
			}
			if a.Kind != ArgNumber {
				return Arg{}, fmt.Errorf("%w: element %d of number sequence is a %s", ErrInvalidInput, i, a.Kind)
			}
			vs[i] = a.Number
		}
		return Numbers(vs...), nil
	case ArgString:
		ss := make([]string, len(xs))
		for i, x := range xs {
			s, ok := x.(string)
			if !ok {
				return Arg{}, fmt.Errorf("%w: element %d of string sequence is a %T", ErrInvalidInput, i, x)
			}
			ss[i] = s
		}
		return Strings(ss...), nil
	}
	return Arg{}, fmt.Errorf("%w: sequence of %s", ErrInvalidInput, first.Kind)
}

// Returns the numeric scalar value. Strings are parsed as numbers
func (a Arg) Float() (float64, error) {
	switch a.Kind {
	case ArgNumber:
		return a.Number, nil
	case ArgString:
		f, err := strconv.ParseFloat(strings.TrimSpace(a.String), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s' is not a number", ErrInvalidInput, a.String)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s is not a scalar", ErrInvalidInput, a.Kind)
}

// Returns the numeric values broadcast to n elements
func (a Arg) values(n int) ([]float64, error) {
	switch a.Kind {
	case ArgNumbers:
		return append([]float64(nil), a.Numbers...), nil
	case ArgStrings:
		vs := make([]float64, len(a.Strings))
		for i, s := range a.Strings {
			v, err := String(s).Float()
			if err != nil {
				return nil, err
			}
			vs[i] = v
		}
		return vs, nil
	}
	v, err := a.Float()
	if err != nil {
		return nil, err
	}
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = v
	}
	return vs, nil
}

// Returns the string values broadcast to n elements
func (a Arg) names(n int) ([]string, error) {
	switch a.Kind {
	case ArgStrings:
		return append([]string(nil), a.Strings...), nil
	case ArgString:
		ss := make([]string, n)
		for i := range ss {
			ss[i] = a.String
		}
		return ss, nil
	}
	return nil, fmt.Errorf("%w: band names must be strings, got %s", ErrInvalidInput, a.Kind)
}

// Scalars marshal as JSON scalars, sequences as arrays, absent values as null
func (a Arg) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ArgNumber:
		return json.Marshal(a.Number)
	case ArgString:
		return json.Marshal(a.String)
	case ArgNumbers:
		return json.Marshal(a.Numbers)
	case ArgStrings:
		return json.Marshal(a.Strings)
	}
	return []byte("null"), nil
}

func (a *Arg) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	arg, err := ArgFromValue(v)
	if err != nil {
		return err
	}
	*a = arg
	return nil
}

func (a *Arg) UnmarshalYAML(b []byte) error {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	arg, err := ArgFromValue(v)
	if err != nil {
		return err
	}
	*a = arg
	return nil
}

func (a Arg) MarshalYAML() (interface{}, error) {
	switch a.Kind {
	case ArgNumber:
		return a.Number, nil
	case ArgString:
		return a.String, nil
	case ArgNumbers:
		return a.Numbers, nil
	case ArgStrings:
		return a.Strings, nil
	}
	return nil, nil
}

// Parses a command line value: comma-separated lists become sequences,
// single values scalars, and the empty string an absent argument
func ParseArg(s string, numeric bool) (Arg, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Arg{}, nil
	}
	fields := strings.Split(s, ",")
	if !numeric {
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) == 1 {
			return String(fields[0]), nil
		}
		return Strings(fields...), nil
	}
	vs := make([]float64, len(fields))
	for i, f := range fields {
		v, err := String(f).Float()
		if err != nil {
			return Arg{}, err
		}
		vs[i] = v
	}
	if len(vs) == 1 {
		return Number(vs[0]), nil
	}
	return Numbers(vs...), nil
}
