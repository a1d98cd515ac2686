package domain

import (
	"time"
)

// RawCME mirrors the DONKI /CME response schema. Only the fields the
// pipeline consumes are declared; the upstream payload carries more.
type RawCME struct {
	ActivityID     string           `json:"activityID"`
	Catalog        string           `json:"catalog"`
	StartTime      string           `json:"startTime"`
	SourceLocation string           `json:"sourceLocation"`
	Note           string           `json:"note"`
	CMEAnalyses    []RawCMEAnalysis `json:"cmeAnalyses"`
}

// RawCMEAnalysis is one entry of a CME's analyses array. DONKI publishes
// zero or more analyses per event; by upstream convention the first entry
// is the most accurate.
type RawCMEAnalysis struct {
	Speed     *float64 `json:"speed"`
	HalfAngle *float64 `json:"halfAngle"`
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// RawGST mirrors the DONKI /GST response schema.
type RawGST struct {
	GstID        string           `json:"gstID"`
	StartTime    string           `json:"startTime"`
	AllKpIndex   []RawKpIndex     `json:"allKpIndex"`
	LinkedEvents []RawLinkedEvent `json:"linkedEvents"`
}

// RawKpIndex is a single Kp observation inside a GST record.
type RawKpIndex struct {
	ObservedTime string  `json:"observedTime"`
	KpIndex      float64 `json:"kpIndex"`
	Source       string  `json:"source"`
}

// RawLinkedEvent references another DONKI activity associated with a GST.
type RawLinkedEvent struct {
	ActivityID string `json:"activityID"`
}

// CMEEvent is the typed representation of a coronal mass ejection.
// Optional measurements are pointers: a nil Speed means DONKI reported no
// speed, which is distinct from a measured 0 km/s.
type CMEEvent struct {
	ActivityID     string    `json:"activityID"`
	StartTime      time.Time `json:"startTime"`
	Speed          *float64  `json:"speed"`     // km/s
	HalfAngle      *float64  `json:"halfAngle"` // degrees
	Type           string    `json:"type,omitempty"`
	SourceLocation string    `json:"sourceLocation,omitempty"`
	Catalog        string    `json:"catalog,omitempty"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	Note           string    `json:"note,omitempty"`
}

// KpObservation is one Kp index measurement within a geomagnetic storm.
type KpObservation struct {
	ObservedTime time.Time `json:"observedTime"`
	KpIndex      float64   `json:"kpIndex"`
	Source       string    `json:"source,omitempty"`
}

// GSTEvent is the typed representation of a geomagnetic storm.
// KpIndex observations are kept in observed-time order.
type GSTEvent struct {
	GstID             string          `json:"gstID"`
	StartTime         time.Time       `json:"startTime"`
	KpIndex           []KpObservation `json:"allKpIndex"`
	LinkedActivityIDs []string        `json:"linkedActivityIDs,omitempty"`
}

// MaxKp returns the strongest Kp observation of the storm, or 0 when the
// storm carries no observations.
func (g GSTEvent) MaxKp() float64 {
	var maxKp float64
	for _, obs := range g.KpIndex {
		if obs.KpIndex > maxKp {
			maxKp = obs.KpIndex
		}
	}
	return maxKp
}

// Linked reports whether DONKI itself associated the given activity with
// this storm via linkedEvents.
func (g GSTEvent) Linked(activityID string) bool {
	for _, id := range g.LinkedActivityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}

// MergedCME is a CME candidate attached to a merged record, annotated with
// its relationship to the storm.
type MergedCME struct {
	CMEEvent
	PropagationHours float64 `json:"propagationHours"`
	LinkedCME        bool    `json:"linkedCME"`
}

// MergedRecord joins one GST with the CME candidates that preceded it
// inside the configured lead window. CMEs are ordered by start time
// ascending; a storm with no candidates keeps an empty slice.
type MergedRecord struct {
	GST  GSTEvent    `json:"gst"`
	CMEs []MergedCME `json:"cmes"`
}
