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


package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistics of a set of coefficients or temperatures
type BasicStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"` // sample standard deviation, 0 for a single value
	Median float64 `json:"median"`
}

// Calculates basic statistics. NaNs are ignored; returns nil if no values remain
func Summarize(data []float64) *BasicStats {
	sorted := make([]float64, 0, len(data))
	for _, d := range data {
		if !math.IsNaN(d) {
			sorted = append(sorted, d)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	s := &BasicStats{
		Count:  len(sorted),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	return s
}

// Pretty print basic stats to string
func (s *BasicStats) String() string {
	return fmt.Sprintf("Count %d Min %.6g Max %.6g Mean %.6g StdDev %.6g Median %.6g",
		s.Count, s.Min, s.Max, s.Mean, s.StdDev, s.Median)
}

// Pretty print basic stats to CSV header
func (s *BasicStats) ToCSVHeader() string {
	return "Count,Min,Max,Mean,StdDev,Median"
}

// Pretty print basic stats to CSV line item
func (s *BasicStats) ToCSVLine() string {
	return fmt.Sprintf("%d,%.6g,%.6g,%.6g,%.6g,%.6g", s.Count, s.Min, s.Max, s.Mean, s.StdDev, s.Median)
}
