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
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/mlnoga/extinction/internal/coeff"
	"github.com/pbnjay/memory"
)

// Returned for requests with more elements than the context allows
var ErrTooLarge = errors.New("request too large")

// Bytes of working memory assumed per evaluated element
const bytesPerElement = 256

// An execution context for operators
type Context struct {
	Log         io.Writer
	Table       *coeff.Table
	MemoryMB    int // memory.TotalMemory()/1024/1024
	MaxThreads  int `json:"maxThreads"`
	MaxElements int `json:"maxElements"` // per request, 0=unlimited
}

func NewContext(log io.Writer, table *coeff.Table) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	if table == nil {
		table = coeff.Default
	}
	return &Context{
		Log:         log,
		Table:       table,
		MemoryMB:    memoryMB,
		MaxThreads:  runtime.GOMAXPROCS(0),
		MaxElements: memoryMB / 10 * (1024 * 1024 / bytesPerElement),
	}
}

// An operator on extinction requests, producing one or more outcomes
type Operator interface {
	GetType() string
	IsActive() bool
	Apply(c *Context) (outs []*Outcome, err error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type" yaml:"type"`
	Active bool   `json:"active" yaml:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory method for the type
var operatorFactories = map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of Operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op := f()
	t := op.GetType()
	if GetOperatorFactory(t) != nil {
		panic(fmt.Sprintf("error: re-registering operator key %s\n", t))
	}
	operatorFactories[t] = f
}

// The outcome of one request: the request ID, its result, and the
// temperatures estimated from BP-RP if any
type Outcome struct {
	ID     int          `json:"id"`
	Result coeff.Result `json:"value"`
	Teff   []float64    `json:"teff,omitempty"`
}

// A promise for an outcome
type Promise func() (o *Outcome, err error)

// Materializes all promises with given concurrency limit. Failed promises
// are dropped from the outputs and their errors joined
func MaterializeAll(ins []Promise, maxThreads int) (outs []*Outcome, err error) {
	if len(ins) == 0 {
		return nil, nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	outs = make([]*Outcome, len(ins))
	limiter := make(chan bool, maxThreads)
	errs := make(chan error, len(ins))
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			o, err := theIn() // materialize the promise
			outs[i] = o
			errs <- err
		}(i, in)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	var all []error
	for i := 0; i < len(ins); i++ { // collect errors
		if e := <-errs; e != nil {
			all = append(all, e)
		}
	}
	return RemoveNils(outs), errors.Join(all...)
}

// Remove nils from an array of outcomes, editing the underlying array in place
func RemoveNils(outs []*Outcome) []*Outcome {
	o := 0
	for i := 0; i < len(outs); i++ {
		if outs[i] != nil {
			outs[o] = outs[i]
			o++
		}
	}
	for i := o; i < len(outs); i++ {
		outs[i] = nil
	}
	return outs[:o]
}
