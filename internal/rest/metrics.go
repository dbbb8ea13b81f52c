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
	"time"

	"github.com/mlnoga/extinction/internal/coeff"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics of the server, on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	Requests    *prometheus.CounterVec
	Elements    *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	DerivedSize prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "extinction_requests_total",
			Help: "Total number of coefficient requests",
		}, []string{"endpoint", "mode"}),
		Elements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "extinction_elements_total",
			Help: "Total number of evaluated coefficients",
		}, []string{"mode"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "extinction_errors_total",
			Help: "Total number of failed requests by error kind",
		}, []string{"kind"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "extinction_request_duration_seconds",
			Help:    "Request evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"endpoint"}),
		DerivedSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "extinction_derived_colors",
			Help: "Number of derived color indices cached",
		}),
	}
}

// Records one evaluated request
func (m *Metrics) Observe(endpoint string, mode coeff.Mode, elements int, start time.Time) {
	if mode == "" {
		mode = coeff.ModeFunc
	}
	m.Requests.WithLabelValues(endpoint, string(mode)).Inc()
	m.Elements.WithLabelValues(string(mode)).Add(float64(elements))
	m.Duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Records a failed request by kind of error. Joined errors count once per
// failed request
func (m *Metrics) ObserveError(err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			m.ObserveError(e)
		}
		return
	}
	m.Errors.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, coeff.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, coeff.ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, coeff.ErrUnknownBand):
		return "unknown_band"
	case errors.Is(err, coeff.ErrDisjointRange):
		return "disjoint_range"
	case errors.Is(err, coeff.ErrMissingInput):
		return "missing_input"
	case errors.Is(err, coeff.ErrInvalidMode):
		return "invalid_mode"
	}
	return "other"
}
