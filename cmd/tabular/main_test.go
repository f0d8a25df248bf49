package main

import (
	"flag"
	"testing"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
)

func resetFlags(t *testing.T) {
	t.Helper()
	orig := flag.CommandLine
	t.Cleanup(func() {
		flag.CommandLine = orig
		*filterFlag = ""
		*calcFlag = ""
		*selectFlag = ""
		*sortFlag = ""
		*descFlag = false
		*numericFlag = false
		*limitFlag = 0
		*offsetFlag = 0
		*sampleFlag = 0
		*distinct = false
	})
}

func testDataset() dataset.Dataset {
	return dataset.NewRasterDataset(dataset.NewRaster(
		[]data.Column{"name", "age"},
		[]data.Tuple{
			{data.String("alice"), data.Int(34)},
			{data.String("bob"), data.Int(19)},
			{data.String("carol"), data.Int(52)},
		},
		true,
	))
}

func run(t *testing.T, ds dataset.Dataset) *dataset.Raster {
	t.Helper()
	out, err := applyPipeline(ds)
	if err != nil {
		t.Fatalf("applyPipeline failed: %v", err)
	}
	r, err := materialize(out)
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	return r
}

func TestApplyPipeline_FilterSortLimit(t *testing.T) {
	resetFlags(t)
	*filterFlag = "=[@age]>20"
	*sortFlag = "age"
	*numericFlag = true
	*descFlag = true
	*limitFlag = 1

	r := run(t, testDataset())
	if r.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", r.RowCount())
	}
	if !r.Cell(0, 0).Equals(data.String("carol")) {
		t.Errorf("expected carol, got %v", r.Cell(0, 0))
	}
}

func TestApplyPipeline_CalcAndSelect(t *testing.T) {
	resetFlags(t)
	*calcFlag = "shout=UPPERCASE([@name])"
	*selectFlag = "shout"

	r := run(t, testDataset())
	if got := r.Columns(); len(got) != 1 || got[0] != "shout" {
		t.Fatalf("columns = %v", got)
	}
	if !r.Cell(0, 0).Equals(data.String("ALICE")) {
		t.Errorf("shout = %v", r.Cell(0, 0))
	}
}

func TestApplyPipeline_BadFormula(t *testing.T) {
	resetFlags(t)
	*filterFlag = "=UPPERCASE("

	if _, err := applyPipeline(testDataset()); err == nil {
		t.Fatal("expected an error for an unterminated formula")
	}
}

func TestNewFormatter_Unsupported(t *testing.T) {
	if _, err := newFormatter("xml"); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
