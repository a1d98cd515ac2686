package export

import (
	"encoding/json"
	"os"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

// writeJSON writes the nested representation: an array of GST objects, each
// embedding its ordered CME candidates. No records yields a literal [].
func writeJSON(records []domain.MergedRecord, path string) error {
	if records == nil {
		records = []domain.MergedRecord{}
	}
	return atomicWrite(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	})
}

// writeSummary writes run statistics as indented JSON.
func writeSummary(summary domain.RunSummary, path string) error {
	return atomicWrite(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	})
}
