package transcript

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"callsight/internal/types"
)

// WriteCSV persists the annotated table, one row per turn in conversation
// order, with every annotation column present.
func WriteCSV(t types.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create annotated csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"Speaker", "Timestamp", "Text",
		"Intent", "IntentCategory", "Sentiment", "SentimentScore",
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, u := range t {
		row := []string{
			u.Speaker,
			u.Timestamp(),
			u.Text,
			u.Intent,
			u.IntentCategory,
			string(u.Sentiment),
			strconv.Itoa(u.Sentiment.Score()),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush annotated csv: %w", err)
	}
	return nil
}
