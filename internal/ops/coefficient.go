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


package ops

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mlnoga/extinction/internal/coeff"
	"github.com/mlnoga/extinction/internal/stats"
)

// Evaluates a single coefficient request. Takes no inputs, produces one outcome
type OpCoefficient struct {
	OpBase  `yaml:",inline"`
	ID      int           `json:"id" yaml:"id"`
	Request coeff.Request `json:"request" yaml:"request"`
	Stats   bool          `json:"stats" yaml:"stats"` // log summary statistics of the values
}

func init() { SetOperatorFactory(func() Operator { return NewOpCoefficientDefault() }) } // register the operator for JSON decoding

func NewOpCoefficientDefault() *OpCoefficient { return NewOpCoefficient(0, coeff.Request{}) }

func NewOpCoefficient(id int, req coeff.Request) *OpCoefficient {
	return &OpCoefficient{
		OpBase:  OpBase{Type: "coefficient", Active: true},
		ID:      id,
		Request: req,
	}
}

func (op *OpCoefficient) Apply(c *Context) (outs []*Outcome, err error) {
	if !op.Active {
		return nil, nil
	}
	o, err := op.MakePromise(c)()
	if err != nil {
		return nil, err
	}
	return []*Outcome{o}, nil
}

func (op *OpCoefficient) MakePromise(c *Context) Promise {
	return func() (*Outcome, error) {
		req := op.Request
		if n := maxLen(req); c.MaxElements > 0 && n > c.MaxElements {
			return nil, fmt.Errorf("%d: %w: %d elements, limit %d", op.ID, ErrTooLarge, n, c.MaxElements)
		}

		res, err := c.Table.Evaluate(req)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", op.ID, err)
		}
		o := &Outcome{ID: op.ID, Result: res, Teff: res.Teff}

		if len(res.Values) == 1 {
			fmt.Fprintf(c.Log, "%d: %s coefficient %.6g\n", op.ID, bandLabel(req.Band), res.Values[0])
		} else {
			fmt.Fprintf(c.Log, "%d: %s %d coefficients\n", op.ID, bandLabel(req.Band), len(res.Values))
		}
		if op.Stats {
			if s := stats.Summarize(res.Values); s != nil {
				fmt.Fprintf(c.Log, "%d: %v\n", op.ID, s)
			}
		}
		return o, nil
	}
}

// Largest sequence length among the arguments of a request
func maxLen(req coeff.Request) int {
	n := 0
	for _, a := range []coeff.Arg{req.Band, req.EBV, req.BPRP, req.Teff} {
		if a.Len() > n {
			n = a.Len()
		}
	}
	return n
}

func bandLabel(a coeff.Arg) string {
	switch a.Kind {
	case coeff.ArgString:
		return a.String
	case coeff.ArgStrings:
		if len(a.Strings) > 3 {
			return strings.Join(a.Strings[:3], ",") + ",..."
		}
		return strings.Join(a.Strings, ",")
	}
	return a.Kind.String()
}

// Evaluates many requests concurrently, limited to the context's number of threads.
// Failed requests are logged and reported as a joined error; the outcomes of
// successful requests are returned in order
type OpBatch struct {
	OpBase   `yaml:",inline"`
	Requests []coeff.Request `json:"requests" yaml:"requests"`
	Stats    bool            `json:"stats" yaml:"stats"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpBatchDefault() }) } // register the operator for JSON decoding

func NewOpBatchDefault() *OpBatch { return NewOpBatch(nil) }

func NewOpBatch(reqs []coeff.Request) *OpBatch {
	return &OpBatch{
		OpBase:   OpBase{Type: "batch", Active: true},
		Requests: reqs,
	}
}

func (op *OpBatch) Apply(c *Context) (outs []*Outcome, err error) {
	if !op.Active || len(op.Requests) == 0 {
		return nil, nil
	}
	fmt.Fprintf(c.Log, "Evaluating %d requests with %d threads\n", len(op.Requests), c.MaxThreads)

	promises := make([]Promise, len(op.Requests))
	for i, req := range op.Requests {
		opCoeff := NewOpCoefficient(i, req)
		opCoeff.Stats = op.Stats
		p := opCoeff.MakePromise(c)
		promises[i] = func() (*Outcome, error) {
			o, err := p()
			if err != nil {
				fmt.Fprintf(c.Log, "Error: %s\n", err.Error())
			}
			return o, err
		}
	}
	outs, err = MaterializeAll(promises, c.MaxThreads)
	fmt.Fprintf(c.Log, "Evaluated %d of %d requests\n", len(outs), len(op.Requests))
	if derived := c.Table.Derived(); len(derived) > 0 {
		fmt.Fprintf(c.Log, "Derived color indices: %s\n", strings.Join(derived, ", "))
	}
	return outs, err
}

// Decodes a serialized operator of any registered type, based on its type field.
// Documents without a type field are read as a batch
func UnmarshalOperator(b []byte, isYAML bool) (Operator, error) {
	unmarshal := json.Unmarshal
	if isYAML {
		unmarshal = func(b []byte, v interface{}) error { return yaml.Unmarshal(b, v) }
	}
	var base OpBase
	if err := unmarshal(b, &base); err != nil {
		return nil, err
	}
	if base.Type == "" {
		op := NewOpBatchDefault()
		if err := unmarshal(b, op); err != nil {
			return nil, err
		}
		op.Type = "batch"
		return op, nil
	}
	factory := GetOperatorFactory(base.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown operator type '%s'", base.Type)
	}
	op := factory()
	if err := unmarshal(b, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Loads an operator from a JSON or YAML file, chosen by suffix
func LoadOperator(fileName string) (Operator, error) {
	if !isPathAllowed(fileName) {
		return nil, errors.New("Filename outside current directory tree, aborting")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	isYAML := ext == ".yaml" || ext == ".yml"
	if !isYAML && ext != ".json" {
		return nil, fmt.Errorf("unknown suffix '%s', expected .json, .yaml or .yml", ext)
	}
	b, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	op, err := UnmarshalOperator(b, isYAML)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return op, nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}
