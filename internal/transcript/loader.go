package transcript

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"callsight/internal/types"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyTable    = errors.New("transcript has no data rows")
)

// Load reads a transcript table from a CSV or spreadsheet file. The header
// must carry Text and Speaker columns (matched case-insensitively);
// Timestamp is optional and parsed from "1.23s - 4.56s" spans.
func Load(path string) (types.Table, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		rows, err = sheetRows(path)
	default:
		rows, err = csvRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}

	header := rows[0]
	textIdx, speakerIdx, tsIdx := -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case l == "text" || strings.Contains(l, "utterance"):
			if textIdx == -1 {
				textIdx = i
			}
		case strings.Contains(l, "speaker"):
			if speakerIdx == -1 {
				speakerIdx = i
			}
		case strings.Contains(l, "timestamp") || strings.Contains(l, "time"):
			if tsIdx == -1 {
				tsIdx = i
			}
		}
	}
	if textIdx == -1 {
		return nil, fmt.Errorf("%w: Text", ErrMissingColumn)
	}
	if speakerIdx == -1 {
		return nil, fmt.Errorf("%w: Speaker", ErrMissingColumn)
	}

	var out types.Table
	for _, r := range rows[1:] {
		if textIdx >= len(r) || speakerIdx >= len(r) {
			continue
		}
		u := types.Utterance{
			Speaker: strings.TrimSpace(r[speakerIdx]),
			Text:    strings.TrimSpace(r[textIdx]),
		}
		if u.Speaker == "" && u.Text == "" {
			continue
		}
		if tsIdx >= 0 && tsIdx < len(r) {
			u.Start, u.End = parseSpan(r[tsIdx])
		}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}
	return out, nil
}

func csvRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func sheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// parseSpan reads a "<start>s - <end>s" span; malformed spans leave the
// times at zero rather than failing the row.
func parseSpan(s string) (float64, float64) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	start, err1 := parseSeconds(parts[0])
	end, err2 := parseSeconds(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return start, end
}

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "s")
	return strconv.ParseFloat(s, 64)
}
