package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"callsight/internal/types"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "Speaker,Timestamp,Text\n"+
		"SPEAKER_00,0.00s - 3.50s,Hello there\n"+
		"SPEAKER_01,3.50s - 7.25s,Hi how can I help\n")

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl))
	}
	if tbl[0].Speaker != "SPEAKER_00" || tbl[0].Text != "Hello there" {
		t.Errorf("row 0 = %+v", tbl[0])
	}
	if tbl[1].Start != 3.5 || tbl[1].End != 7.25 {
		t.Errorf("row 1 span = %v-%v", tbl[1].Start, tbl[1].End)
	}
}

func TestLoadMissingColumns(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"no text", "Speaker,Timestamp\nSPEAKER_00,0.00s - 1.00s\n", "Text"},
		{"no speaker", "Text,Timestamp\nHello,0.00s - 1.00s\n", "Speaker"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeCSV(t, c.content))
			if !errors.Is(err, ErrMissingColumn) {
				t.Fatalf("err = %v, want ErrMissingColumn", err)
			}
			if got := err.Error(); !strings.Contains(got, c.want) {
				t.Errorf("error %q should name column %s", got, c.want)
			}
		})
	}
}

func TestLoadEmptyTable(t *testing.T) {
	_, err := Load(writeCSV(t, "Speaker,Text\n"))
	if !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("err = %v, want ErrEmptyTable", err)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]string{
		{"Speaker", "Text"},
		{"SPEAKER_00", "Good morning"},
		{"SPEAKER_01", "Good morning, thanks for calling"},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl) != 2 || tbl[1].Speaker != "SPEAKER_01" {
		t.Errorf("table = %+v", tbl)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl := types.Table{
		{Speaker: "SPEAKER_00", Start: 0, End: 2.5, Text: "Hello", Intent: "Greeting",
			IntentCategory: "Greeting Intent", Sentiment: types.SentimentPositive},
		{Speaker: "SPEAKER_01", Start: 2.5, End: 5, Text: "Hi", Intent: "Greeting",
			IntentCategory: "Greeting Intent", Sentiment: types.SentimentNeutral},
	}
	path := filepath.Join(t.TempDir(), "out", "annotated.csv")
	if err := WriteCSV(tbl, path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written file: %v", err)
	}
	if len(loaded) != len(tbl) {
		t.Fatalf("rows = %d, want %d", len(loaded), len(tbl))
	}
	for i := range loaded {
		if loaded[i].Speaker != tbl[i].Speaker || loaded[i].Text != tbl[i].Text {
			t.Errorf("row %d = %+v", i, loaded[i])
		}
	}
}
