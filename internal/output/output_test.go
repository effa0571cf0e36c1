package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/skx/cellang/eval"
)

func TestTextSingleRow(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{
		Params: map[string]float64{"p1": 1},
		Values: []eval.NameValue{{Name: "a", Value: 3}},
	}}
	if err := Text(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	out := buf.String()
	if !strings.Contains(out, "p1=1") || !strings.Contains(out, "a=3") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestTextRowError(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{
		Params: map[string]float64{"p1": 1},
		Err:    errors.New("missing binding"),
	}}
	if err := Text(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(buf.String(), "error: missing binding") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestJSONPreservesCellOrder(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{
		Params: map[string]float64{"p1": 1},
		Values: []eval.NameValue{
			{Name: "z", Value: 1},
			{Name: "a", Value: 2},
		},
	}}
	if err := JSON(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %s", err)
	}
	cells := decoded[0]["cells"].([]interface{})
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	first := cells[0].(map[string]interface{})
	if first["name"] != "z" {
		t.Fatalf("expected cell order preserved (z first), got %v", first)
	}
}

func TestJSONErrorField(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{Params: map[string]float64{}, Err: errors.New("boom")}}
	if err := JSON(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(buf.String(), `"error": "boom"`) {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
