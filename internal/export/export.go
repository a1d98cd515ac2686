// Package export writes merged space weather records to flat files.
//
// Two shapes are produced. CSV, Excel, and Parquet flatten to one row per
// (GST, CME) pair; a storm with no candidate CME still gets one row with
// the CME columns blank. JSON keeps the nested shape: one object per GST
// with its CME array embedded. Both preserve the (gstID, cmeID) pair set.
//
// Every writer goes through a temp-file-then-rename so a rerun with the
// same target path overwrites deterministically and a failed write never
// leaves a torn file behind.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/observability"
)

// Supported output formats.
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatExcel   = "excel"
	FormatParquet = "parquet"
)

// extensions maps a format name to its file extension.
var extensions = map[string]string{
	FormatCSV:     "csv",
	FormatJSON:    "json",
	FormatExcel:   "xlsx",
	FormatParquet: "parquet",
}

// ExportError reports a failed or unsupported export. Fatal for the run.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("export %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter writes merged records in the configured formats.
type Exporter struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Exporter.
func New(logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{logger: logger, metrics: metrics}
}

// Export writes records in the given format to path. It fails with an
// *ExportError on I/O failure or an unknown format.
func (e *Exporter) Export(records []domain.MergedRecord, format, path string) error {
	start := time.Now()

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(records, path)
	case FormatJSON:
		err = writeJSON(records, path)
	case FormatExcel:
		err = writeExcel(records, path)
	case FormatParquet:
		err = writeParquet(records, path)
	default:
		err = fmt.Errorf("unsupported format")
	}

	if err != nil {
		if e.metrics != nil {
			e.metrics.ExportErrors.WithLabelValues(format).Inc()
		}
		return &ExportError{Format: format, Path: path, Err: err}
	}

	if e.metrics != nil {
		e.metrics.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}
	e.logger.Info("wrote export file", "format", format, "path", path, "records", len(records))
	return nil
}

// ExportAll writes one deterministically named file per format under dir,
// plus the run summary as JSON. All formats are attempted; failures are
// aggregated so a broken format cannot silently mask another.
func (e *Exporter) ExportAll(records []domain.MergedRecord, summary domain.RunSummary, formats []string, dir string, runDate time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ExportError{Format: "all", Path: dir, Err: err}
	}

	stamp := runDate.Format("2006-01-02")
	var result *multierror.Error
	for _, format := range formats {
		ext, ok := extensions[format]
		if !ok {
			result = multierror.Append(result, &ExportError{Format: format, Err: fmt.Errorf("unsupported format")})
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("space_weather_%s.%s", stamp, ext))
		if err := e.Export(records, format, path); err != nil {
			result = multierror.Append(result, err)
		}
	}

	summaryPath := filepath.Join(dir, fmt.Sprintf("summary_%s.json", stamp))
	if err := writeSummary(summary, summaryPath); err != nil {
		result = multierror.Append(result, &ExportError{Format: "summary", Path: summaryPath, Err: err})
	} else {
		e.logger.Info("wrote run summary", "path", summaryPath)
	}

	return result.ErrorOrNil()
}

// atomicWrite writes data-producing work to path via a temp file and rename.
func atomicWrite(path string, write func(f *os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
