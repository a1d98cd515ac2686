package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// donkiTimeLayouts are the timestamp formats DONKI emits, most common first.
var donkiTimeLayouts = []string{
	"2006-01-02T15:04Z",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
}

// MalformedRecordError reports a record that cannot become a typed event.
// It is recoverable: bulk parsing drops the record and continues.
type MalformedRecordError struct {
	Kind   string // "CME" or "GST"
	ID     string // upstream id when known, may be empty
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed %s record: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("malformed %s record %s: %s", e.Kind, e.ID, e.Reason)
}

// ParseTime normalizes a DONKI timestamp to a UTC instant.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range donkiTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ParseCME converts a raw DONKI CME record into a CMEEvent.
// The id and start time are required; measurement fields stay nil when the
// upstream analysis omits them.
func ParseCME(raw RawCME) (CMEEvent, error) {
	if strings.TrimSpace(raw.ActivityID) == "" {
		return CMEEvent{}, &MalformedRecordError{Kind: "CME", Reason: "missing activityID"}
	}
	start, err := ParseTime(raw.StartTime)
	if err != nil {
		return CMEEvent{}, &MalformedRecordError{Kind: "CME", ID: raw.ActivityID, Reason: err.Error()}
	}

	event := CMEEvent{
		ActivityID:     raw.ActivityID,
		StartTime:      start,
		SourceLocation: raw.SourceLocation,
		Catalog:        raw.Catalog,
		Note:           raw.Note,
	}
	if len(raw.CMEAnalyses) > 0 {
		analysis := raw.CMEAnalyses[0]
		event.Speed = analysis.Speed
		event.HalfAngle = analysis.HalfAngle
		event.Type = analysis.Type
		event.Latitude = analysis.Latitude
		event.Longitude = analysis.Longitude
	}
	return event, nil
}

// ParseGST converts a raw DONKI GST record into a GSTEvent.
// Kp observations with unparseable times are dropped from the storm; the
// storm itself only fails when id or start time are unusable.
func ParseGST(raw RawGST) (GSTEvent, error) {
	if strings.TrimSpace(raw.GstID) == "" {
		return GSTEvent{}, &MalformedRecordError{Kind: "GST", Reason: "missing gstID"}
	}
	start, err := ParseTime(raw.StartTime)
	if err != nil {
		return GSTEvent{}, &MalformedRecordError{Kind: "GST", ID: raw.GstID, Reason: err.Error()}
	}

	event := GSTEvent{
		GstID:     raw.GstID,
		StartTime: start,
	}
	for _, kp := range raw.AllKpIndex {
		observed, err := ParseTime(kp.ObservedTime)
		if err != nil {
			continue
		}
		event.KpIndex = append(event.KpIndex, KpObservation{
			ObservedTime: observed,
			KpIndex:      kp.KpIndex,
			Source:       kp.Source,
		})
	}
	sort.Slice(event.KpIndex, func(i, j int) bool {
		return event.KpIndex[i].ObservedTime.Before(event.KpIndex[j].ObservedTime)
	})
	for _, linked := range raw.LinkedEvents {
		if linked.ActivityID != "" {
			event.LinkedActivityIDs = append(event.LinkedActivityIDs, linked.ActivityID)
		}
	}
	return event, nil
}

// ParseCMEs parses a batch of raw CME records, dropping malformed entries
// with a logged warning. It returns the parsed events and the drop count.
func ParseCMEs(raws []RawCME, logger *slog.Logger) ([]CMEEvent, int) {
	events := make([]CMEEvent, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		event, err := ParseCME(raw)
		if err != nil {
			logger.Warn("dropping malformed CME record", "error", err)
			dropped++
			continue
		}
		events = append(events, event)
	}
	return events, dropped
}

// ParseGSTs parses a batch of raw GST records, dropping malformed entries
// with a logged warning. It returns the parsed events and the drop count.
func ParseGSTs(raws []RawGST, logger *slog.Logger) ([]GSTEvent, int) {
	events := make([]GSTEvent, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		event, err := ParseGST(raw)
		if err != nil {
			logger.Warn("dropping malformed GST record", "error", err)
			dropped++
			continue
		}
		events = append(events, event)
	}
	return events, dropped
}
