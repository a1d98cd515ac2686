package export

import (
	"strconv"
	"time"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

// pairHeader names the flattened columns, in order, for CSV and Excel.
var pairHeader = []string{
	"gstID",
	"gstStartTime",
	"maxKp",
	"cmeID",
	"cmeStartTime",
	"propagationHours",
	"speed",
	"halfAngle",
	"type",
	"sourceLocation",
	"latitude",
	"longitude",
	"linkedCME",
}

// flatten expands merged records into one row per (GST, CME) pair. A storm
// without candidates yields a single row with the CME columns blank.
func flatten(records []domain.MergedRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		gstCols := []string{
			rec.GST.GstID,
			rec.GST.StartTime.Format(time.RFC3339),
			formatFloat(rec.GST.MaxKp()),
		}

		if len(rec.CMEs) == 0 {
			row := append(append([]string{}, gstCols...),
				"", "", "", "", "", "", "", "", "", "")
			rows = append(rows, row)
			continue
		}

		for _, cme := range rec.CMEs {
			row := append(append([]string{}, gstCols...),
				cme.ActivityID,
				cme.StartTime.Format(time.RFC3339),
				formatFloat(cme.PropagationHours),
				formatOptional(cme.Speed),
				formatOptional(cme.HalfAngle),
				cme.Type,
				cme.SourceLocation,
				formatOptional(cme.Latitude),
				formatOptional(cme.Longitude),
				strconv.FormatBool(cme.LinkedCME),
			)
			rows = append(rows, row)
		}
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional renders a missing measurement as an empty cell, never 0.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
