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


package rest

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mlnoga/extinction/internal/coeff"
	"github.com/mlnoga/extinction/internal/ops"
)

// Serves the REST API until the listener fails
func Serve(cfg *Config, c *ops.Context) error {
	gin.SetMode(cfg.GinMode)
	r := NewRouter(c, NewMetrics())
	return r.Run(cfg.Addr)
}

// Sets up the routes of the REST API on a new gin engine
func NewRouter(c *ops.Context, m *Metrics) *gin.Engine {
	h := &handlers{c: c, m: m}
	r := gin.New()
	r.Use(gin.LoggerWithWriter(c.Log), gin.Recovery())
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/bands", h.getBands)
			v1.GET("/bands/:name", h.getBand)
			v1.POST("/coefficient", h.postCoefficient)
			v1.POST("/batch", h.postBatch)
		}
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	return r
}

type handlers struct {
	c *ops.Context
	m *Metrics
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (h *handlers) getBands(c *gin.Context) {
	bands := []coeff.Entry{}
	for _, name := range h.c.Table.Bands() {
		e, _ := h.c.Table.Lookup(name)
		bands = append(bands, e)
	}
	c.JSON(http.StatusOK, gin.H{
		"bands":   bands,
		"derived": h.c.Table.Derived(),
	})
}

// Resolves a band, creating derived color indices on demand
func (h *handlers) getBand(c *gin.Context) {
	e, err := h.c.Table.Resolve(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.m.DerivedSize.Set(float64(len(h.c.Table.Derived())))
	c.JSON(http.StatusOK, e)
}

type postCoefficientResponse struct {
	Value coeff.Result `json:"value"`
	Teff  []float64    `json:"teff,omitempty"`
}

func (h *handlers) postCoefficient(c *gin.Context) {
	start := time.Now()
	var req coeff.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, err)
		return
	}

	outs, err := ops.NewOpCoefficient(0, req).Apply(h.c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.m.Observe("coefficient", req.Mode, len(outs[0].Result.Values), start)
	h.m.DerivedSize.Set(float64(len(h.c.Table.Derived())))
	c.JSON(http.StatusOK, postCoefficientResponse{Value: outs[0].Result, Teff: outs[0].Teff})
}

type postBatchResponse struct {
	Outcomes []*ops.Outcome `json:"outcomes"`
	Errors   []string       `json:"errors,omitempty"`
}

func (h *handlers) postBatch(c *gin.Context) {
	start := time.Now()
	var op ops.OpBatch
	if err := c.ShouldBindJSON(&op); err != nil {
		h.fail(c, err)
		return
	}
	op.Type, op.Active = "batch", true

	outs, err := op.Apply(h.c)
	res := postBatchResponse{Outcomes: outs}
	if res.Outcomes == nil {
		res.Outcomes = []*ops.Outcome{}
	}
	if err != nil {
		h.m.ObserveError(err)
		res.Errors = splitErrors(err)
	}
	elements := 0
	for _, o := range outs {
		elements += len(o.Result.Values)
	}
	h.m.Observe("batch", coeff.ModeFunc, elements, start)
	h.m.DerivedSize.Set(float64(len(h.c.Table.Derived())))
	c.JSON(http.StatusOK, res)
}

// Flattens joined errors into their messages
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		msgs := []string{}
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

func (h *handlers) fail(c *gin.Context, err error) {
	h.m.ObserveError(err)
	status := http.StatusBadRequest
	if errors.Is(err, ops.ErrTooLarge) {
		status = http.StatusRequestEntityTooLarge
	} else if errors.Is(err, io.EOF) {
		err = errors.New("empty request body")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
