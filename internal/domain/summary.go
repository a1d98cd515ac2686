package domain

import (
	"sort"
	"time"
)

// RunSummary aggregates statistics over one pipeline run's merged output.
type RunSummary struct {
	GeneratedAt time.Time `json:"generatedAt"`

	TotalCMEs   int `json:"totalCMEs"`
	TotalGSTs   int `json:"totalGSTs"`
	LinkedPairs int `json:"linkedPairs"` // (GST, CME) pairs in the merged output
	OrphanGSTs  int `json:"orphanGSTs"`  // storms with no CME candidate

	// Propagation time statistics over all pairs, in hours.
	// Nil when there are no pairs.
	MeanPropagationHours   *float64 `json:"meanPropagationHours"`
	MedianPropagationHours *float64 `json:"medianPropagationHours"`
	MinPropagationHours    *float64 `json:"minPropagationHours"`
	MaxPropagationHours    *float64 `json:"maxPropagationHours"`

	MaxKp float64 `json:"maxKp"`
}

// Summarize computes run statistics from the merged records. totalCMEs is
// the count of fetched CMEs, which can exceed the number appearing in any
// record.
func Summarize(records []MergedRecord, totalCMEs int) RunSummary {
	s := RunSummary{
		GeneratedAt: clock.Now().UTC(),
		TotalCMEs:   totalCMEs,
		TotalGSTs:   len(records),
	}

	var hours []float64
	for _, rec := range records {
		if kp := rec.GST.MaxKp(); kp > s.MaxKp {
			s.MaxKp = kp
		}
		if len(rec.CMEs) == 0 {
			s.OrphanGSTs++
			continue
		}
		for _, cme := range rec.CMEs {
			hours = append(hours, cme.PropagationHours)
		}
	}
	s.LinkedPairs = len(hours)
	if len(hours) == 0 {
		return s
	}

	sort.Float64s(hours)
	var sum float64
	for _, h := range hours {
		sum += h
	}
	mean := sum / float64(len(hours))
	median := hours[len(hours)/2]
	if len(hours)%2 == 0 {
		median = (hours[len(hours)/2-1] + hours[len(hours)/2]) / 2
	}
	minHours, maxHours := hours[0], hours[len(hours)-1]

	s.MeanPropagationHours = &mean
	s.MedianPropagationHours = &median
	s.MinPropagationHours = &minHours
	s.MaxPropagationHours = &maxHours
	return s
}
