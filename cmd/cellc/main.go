// cellc is the command-line front end for the cellang evaluator: it loads
// a program, binds parameters (optionally as a Cartesian product), runs it
// against one of the three engines, and prints the requested cells.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/teris-io/cli"

	"github.com/skx/cellang/eval"
	"github.com/skx/cellang/internal/cartesian"
	"github.com/skx/cellang/internal/output"
)

var description = strings.ReplaceAll(`
cellc evaluates a cellang program: a small declarative language of input
parameters and derived cells over floating point numbers. Bind parameters
with --param, choose which cells to report with --query, and pick an
evaluation engine with --engine.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("source", "Path to the cellang source file").WithType(cli.TypeString)).
	WithOption(cli.NewOption("query", "Comma-separated names to report (default: all, in dependency order)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("param", "Parameter bindings, \"name=v1,v2,...\"; separate multiple bindings with \";\"").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("engine", "Evaluation engine: ast, vm, or jit (default: vm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("format", "Output format: text or json (default: text)").
		WithType(cli.TypeString)).
	WithAction(Handler)

// Handler is the CLI's entry point, separated from main so it can be
// exercised directly in tests without spawning a process.
func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: a source file path is required")
		return 1
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to read %s: %s\n", args[0], err)
		return 1
	}

	prog, err := eval.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	names := prog.Names()
	if q := options["query"]; q != "" {
		names = strings.Split(q, ",")
	}

	engine := eval.VM
	if e := options["engine"]; e != "" {
		engine = eval.Engine(e)
	}

	bindings, err := parseParams(options["param"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}
	perms := cartesian.Expand(bindings)
	if perms == nil {
		fmt.Fprintln(os.Stderr, "ERROR: a --param binding listed no values")
		return 1
	}

	results := cartesian.Run(perms, func(p map[string]float64) (interface{}, error) {
		return prog.Run(engine, names, p)
	})

	rows := make([]output.Row, len(results))
	for i, r := range results {
		row := output.Row{Params: r.Params, Err: r.Err}
		if r.Err == nil {
			row.Values = r.Values.([]eval.NameValue)
		}
		rows[i] = row
	}

	format := options["format"]
	var writeErr error
	switch format {
	case "", "text":
		writeErr = output.Text(os.Stdout, rows)
	case "json":
		writeErr = output.JSON(os.Stdout, rows)
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unknown --format %q\n", format)
		return 1
	}
	if writeErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", writeErr)
		return 1
	}

	for _, r := range results {
		if r.Err != nil {
			return 1
		}
	}
	return 0
}

// parseParams decodes the --param option's value: bindings separated by
// ";", each "name=v1,v2,...".
func parseParams(raw string) ([]cartesian.Binding, error) {
	if raw == "" {
		return nil, nil
	}

	var bindings []cartesian.Binding
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		nameAndValues := strings.SplitN(part, "=", 2)
		if len(nameAndValues) != 2 {
			return nil, errors.Errorf("malformed --param binding %q", part)
		}

		name := strings.TrimSpace(nameAndValues[0])
		var values []float64
		for _, raw := range strings.Split(nameAndValues[1], ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid value for parameter %q", name)
			}
			values = append(values, v)
		}
		bindings = append(bindings, cartesian.Binding{Name: name, Values: values})
	}
	return bindings, nil
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
