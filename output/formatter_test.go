package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
)

func sampleRaster() *dataset.Raster {
	return dataset.NewRaster(
		[]data.Column{"name", "age", "note"},
		[]data.Tuple{
			{data.String("alice"), data.Int(34), data.Empty},
			{data.String("=cmd"), data.Double(2.5), data.Invalid},
		},
		true,
	)
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(sampleRaster()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,age,note" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "alice,34," {
		t.Errorf("row 1 = %q", lines[1])
	}
	// Formula-looking strings get an injection guard prefix; invalid
	// cells keep their marker.
	if !strings.HasPrefix(lines[2], "'=cmd,2.5,") {
		t.Errorf("row 2 = %q", lines[2])
	}
	if !strings.Contains(lines[2], "#INVALID!") {
		t.Errorf("row 2 should carry the invalid marker: %q", lines[2])
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf).Format(sampleRaster()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first["name"] != "alice" {
		t.Errorf("name = %v", first["name"])
	}
	if first["age"] != float64(34) {
		t.Errorf("age = %v", first["age"])
	}
	if v, present := first["note"]; !present || v != nil {
		t.Errorf("empty cell should encode as null, got %v", v)
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTableFormatter(&buf).Format(sampleRaster()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"name", "alice", "34", "2.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncateCell(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncateCell(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if truncateCell("short") != "short" {
		t.Error("short values must pass through unchanged")
	}
}
