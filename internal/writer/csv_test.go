package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"FlowSentry/internal/model"
)

func TestCSVWriterHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	fv := &model.FeatureVector{
		SrcIP:    "192.168.1.10",
		DstIP:    "10.0.0.1",
		SrcPort:  51234,
		DstPort:  443,
		Protocol: model.ProtoTCP,
		Label:    model.LabelBenign,
	}
	if err := w.WriteRecord(fv); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1 row", len(records))
	}

	cols := model.FeatureColumns()
	if len(records[0]) != len(cols) {
		t.Errorf("header has %d columns, want %d", len(records[0]), len(cols))
	}
	if records[0][0] != "src_ip" || records[0][len(cols)-1] != "label" {
		t.Errorf("header bounds = %q...%q", records[0][0], records[0][len(cols)-1])
	}
	if len(records[1]) != len(cols) {
		t.Errorf("row has %d fields, want %d", len(records[1]), len(cols))
	}
	if records[1][0] != "192.168.1.10" || records[1][len(cols)-1] != model.LabelBenign {
		t.Errorf("row bounds = %q...%q", records[1][0], records[1][len(cols)-1])
	}
}

func TestCSVWriterAppendsWithoutDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")

	for i := 0; i < 2; i++ {
		w, err := NewCSVWriter(path)
		if err != nil {
			t.Fatalf("NewCSVWriter failed: %v", err)
		}
		if err := w.WriteRecord(&model.FeatureVector{SrcIP: "10.0.0.1", Label: model.LabelBenign}); err != nil {
			t.Fatalf("WriteRecord failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
}
