package export

import (
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

// pairRow is the Parquet schema for flattened (GST, CME) pairs. Pointer
// fields become optional columns; a storm with no candidates has all CME
// columns null.
type pairRow struct {
	GstID            string     `parquet:"gstID"`
	GstStartTime     time.Time  `parquet:"gstStartTime"`
	MaxKp            float64    `parquet:"maxKp"`
	CmeID            *string    `parquet:"cmeID"`
	CmeStartTime     *time.Time `parquet:"cmeStartTime"`
	PropagationHours *float64   `parquet:"propagationHours"`
	Speed            *float64   `parquet:"speed"`
	HalfAngle        *float64   `parquet:"halfAngle"`
	Type             *string    `parquet:"type"`
	SourceLocation   *string    `parquet:"sourceLocation"`
	Latitude         *float64   `parquet:"latitude"`
	Longitude        *float64   `parquet:"longitude"`
	LinkedCME        *bool      `parquet:"linkedCME"`
}

// writeParquet writes flattened pair rows in Parquet for columnar
// consumers. Empty input produces a valid zero-row file.
func writeParquet(records []domain.MergedRecord, path string) error {
	rows := make([]pairRow, 0, len(records))
	for _, rec := range records {
		base := pairRow{
			GstID:        rec.GST.GstID,
			GstStartTime: rec.GST.StartTime,
			MaxKp:        rec.GST.MaxKp(),
		}
		if len(rec.CMEs) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, cme := range rec.CMEs {
			row := base
			row.CmeID = ptr(cme.ActivityID)
			row.CmeStartTime = ptr(cme.StartTime)
			row.PropagationHours = ptr(cme.PropagationHours)
			row.Speed = cme.Speed
			row.HalfAngle = cme.HalfAngle
			row.Latitude = cme.Latitude
			row.Longitude = cme.Longitude
			row.LinkedCME = ptr(cme.LinkedCME)
			if cme.Type != "" {
				row.Type = ptr(cme.Type)
			}
			if cme.SourceLocation != "" {
				row.SourceLocation = ptr(cme.SourceLocation)
			}
			rows = append(rows, row)
		}
	}

	return atomicWrite(path, func(f *os.File) error {
		w := parquet.NewGenericWriter[pairRow](f)
		if len(rows) > 0 {
			if _, err := w.Write(rows); err != nil {
				w.Close() //nolint:errcheck // already failing
				return err
			}
		}
		return w.Close()
	})
}

func ptr[T any](v T) *T { return &v }
