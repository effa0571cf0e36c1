// Package output renders cross-product evaluation results as either
// tab-aligned text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/skx/cellang/eval"
)

// Row is one permutation's complete result: the parameter bindings that
// produced it, the requested name/value pairs (in the order requested), and an
// error if that permutation's evaluation failed.
type Row struct {
	Params map[string]float64
	Values []eval.NameValue
	Err    error
}

// Text writes rows to w, tab-aligned, one line per row: the sorted
// parameter bindings followed by the requested name=value pairs, or
// "error: ..." if the row failed.
func Text(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, r := range rows {
		fmt.Fprint(tw, formatParams(r.Params))
		if r.Err != nil {
			fmt.Fprintf(tw, "\terror: %s\n", r.Err)
			continue
		}
		for _, nv := range r.Values {
			fmt.Fprintf(tw, "\t%s=%s", nv.Name, formatFloat(nv.Value))
		}
		fmt.Fprint(tw, "\n")
	}

	return tw.Flush()
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	s := ""
	for i, n := range names {
		if i > 0 {
			s += " "
		}
		s += n + "=" + formatFloat(params[n])
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// jsonNameValue preserves metadata order in the marshaled output, which a
// bare map[string]float64 cannot do (encoding/json always sorts map keys).
type jsonNameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type jsonRow struct {
	Params map[string]float64 `json:"params"`
	Cells  []jsonNameValue    `json:"cells"`
	Error  string             `json:"error,omitempty"`
}

// JSON writes rows to w as a JSON array of {"params", "cells", "error"}
// objects, one per permutation, in the order given.
func JSON(w io.Writer, rows []Row) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		jr := jsonRow{Params: r.Params}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		for _, nv := range r.Values {
			jr.Cells = append(jr.Cells, jsonNameValue{Name: nv.Name, Value: nv.Value})
		}
		out[i] = jr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
