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


package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	nl "github.com/mlnoga/extinction/internal"
	"github.com/mlnoga/extinction/internal/coeff"
	"github.com/mlnoga/extinction/internal/ops"
	"github.com/mlnoga/extinction/internal/rest"
	"github.com/mlnoga/extinction/internal/stats"
)

const version = "0.1.0"

var log = flag.String("log", "", "save log output to `file`")

var band = flag.String("band", "", "passband or color index B1-B2, or a comma-separated list of them, e.g. `G,BP-RP`")
var ebv = flag.String("ebv", "", "E(B-V) in magnitudes, single value or comma-separated list")
var teff = flag.String("teff", "", "effective temperature in Kelvin, single value or comma-separated list")
var bprp = flag.String("bprp", "", "observed BP-RP color, used to estimate Teff if -teff is not given")
var mode = flag.String("mode", "func", "calculation mode: func=function of Teff and E(B-V), simple=single value coefficient")

var showStats = flag.Bool("stats", false, "print summary statistics of the results")
var asJSON = flag.Bool("json", false, "print results as JSON")
var threads = flag.Int("threads", 0, "maximum number of threads for batch evaluation, 0=all CPUs")

func main() {
	logWriter := nl.LogWriter
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, `Extinction Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (eval|simple|teff|bands|batch|serve|legal|version) [batch.json|batch.yaml]

Commands:
  eval    Calculate coefficients for -band at -ebv and -teff or -bprp
  simple  Show single value coefficients for -band
  teff    Estimate effective temperatures from -ebv and -bprp
  bands   List known passbands with valid temperature ranges
  batch   Evaluate the requests in the given JSON or YAML file
  serve   Serve the REST API, configured via EXTINCTION_* environment variables
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log != "" {
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	c := ops.NewContext(logWriter, coeff.Default)
	if *threads > 0 {
		c.MaxThreads = *threads
	}

	var err error
	switch args[0] {
	case "eval":
		err = cmdEval(c, coeff.Mode(*mode))

	case "simple":
		err = cmdEval(c, coeff.ModeSimple)

	case "teff":
		err = cmdTeff(c)

	case "bands":
		cmdBands(c.Table, logWriter)

	case "batch":
		if len(args) != 2 {
			nl.LogFatal("Need exactly one batch file")
		}
		err = cmdBatch(c, args[1])

	case "serve":
		cfg, cfgErr := rest.LoadConfig()
		if cfgErr != nil {
			nl.LogFatal(cfgErr)
		}
		c.MaxThreads = cfg.MaxThreads
		if cfg.MaxElements > 0 {
			c.MaxElements = cfg.MaxElements
		}
		fmt.Fprintf(logWriter, "Serving on %s with %d threads and at most %d elements per request\n", cfg.Addr, c.MaxThreads, c.MaxElements)
		err = rest.Serve(cfg, c)

	case "legal":
		cmdLegal()

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		nl.LogSync()
		os.Exit(-1)
	}
	if args[0] == "batch" {
		fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))
	}
	nl.LogSync()
}

// Parses the request flags
func requestFromFlags(m coeff.Mode) (req coeff.Request, err error) {
	req.Mode = m
	if req.Band, err = coeff.ParseArg(*band, false); err != nil {
		return req, err
	}
	if req.EBV, err = coeff.ParseArg(*ebv, true); err != nil {
		return req, err
	}
	if req.Teff, err = coeff.ParseArg(*teff, true); err != nil {
		return req, err
	}
	if req.BPRP, err = coeff.ParseArg(*bprp, true); err != nil {
		return req, err
	}
	if !req.Band.Present() {
		return req, fmt.Errorf("%w: need -band", coeff.ErrMissingInput)
	}
	return req, nil
}

// Calculate coefficients for the flag values
func cmdEval(c *ops.Context, m coeff.Mode) error {
	req, err := requestFromFlags(m)
	if err != nil {
		return err
	}
	res, err := c.Table.Evaluate(req)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(c.Log, res)
	}
	if res.Scalar {
		fmt.Fprintf(c.Log, "%.6g\n", res.Value())
	} else {
		for _, v := range res.Values {
			fmt.Fprintf(c.Log, "%.6g\n", v)
		}
	}
	if *showStats {
		printStats(c.Log, res.Values)
	}
	return nil
}

// Estimate effective temperatures from E(B-V) and observed BP-RP
func cmdTeff(c *ops.Context) error {
	argEBV, err := coeff.ParseArg(*ebv, true)
	if err != nil {
		return err
	}
	argBPRP, err := coeff.ParseArg(*bprp, true)
	if err != nil {
		return err
	}
	if !argEBV.Present() || !argBPRP.Present() {
		return fmt.Errorf("%w: need -ebv and -bprp", coeff.ErrMissingInput)
	}
	n, err := coeff.Normalize(coeff.String("BP-RP"), argEBV, argBPRP)
	if err != nil {
		return err
	}
	temps, err := c.Table.EstimateTeff(n.X, n.Y)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(c.Log, coeff.Result{Values: temps, Scalar: n.Scalar})
	}
	for _, t := range temps {
		fmt.Fprintf(c.Log, "%.1f\n", t)
	}
	if *showStats {
		printStats(c.Log, temps)
	}
	return nil
}

// List the catalogue of known passbands
func cmdBands(t *coeff.Table, w io.Writer) {
	fmt.Fprintf(w, "%-6s %8s %7s %7s\n", "Band", "R0", "TeffMin", "TeffMax")
	for _, name := range t.Bands() {
		e, _ := t.Lookup(name)
		fmt.Fprintf(w, "%-6s %8.3f %7.0f %7.0f\n", e.Name, e.Coeffs.R0(), e.Range.Min, e.Range.Max)
	}
	fmt.Fprintf(w, "\nColor indices B1-B2 of any two bands with overlapping ranges are derived on demand.\n")
}

// Run the operator from a batch file
func cmdBatch(c *ops.Context, fileName string) error {
	op, err := ops.LoadOperator(fileName)
	if err != nil {
		return err
	}
	if *showStats {
		if b, ok := op.(*ops.OpBatch); ok {
			b.Stats = true
		}
	}
	outs, err := op.Apply(c)
	if *asJSON && outs != nil {
		if jsonErr := printJSON(c.Log, outs); jsonErr != nil {
			return jsonErr
		}
	}
	return err
}

func printJSON(w io.Writer, v interface{}) error {
	m, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", string(m))
	return nil
}

func printStats(w io.Writer, values []float64) {
	if s := stats.Summarize(values); s != nil {
		fmt.Fprintln(w, s)
	}
}
