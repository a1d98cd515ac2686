package export

import (
	"encoding/csv"
	"os"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

// writeCSV writes flattened pair rows. With no records the file still gets
// its header row, so downstream readers always see a well-formed CSV.
func writeCSV(records []domain.MergedRecord, path string) error {
	return atomicWrite(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(pairHeader); err != nil {
			return err
		}
		for _, row := range flatten(records) {
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}
