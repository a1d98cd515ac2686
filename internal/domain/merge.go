package domain

import (
	"sort"
	"time"
)

// Merge associates each storm with the CMEs that started inside
// [gst.start-window, gst.start). The interval is half-open: a CME starting
// exactly at the storm's start time is not a candidate.
//
// Output order is deterministic: storms ascending by start time (ties by
// gstID), candidates within a record ascending by start time (ties by
// activityID). A CME preceding several storms appears under each of them;
// a storm with no candidates is kept with an empty CME list.
func Merge(cmes []CMEEvent, gsts []GSTEvent, window time.Duration) []MergedRecord {
	sortedCMEs := make([]CMEEvent, len(cmes))
	copy(sortedCMEs, cmes)
	sort.Slice(sortedCMEs, func(i, j int) bool {
		if sortedCMEs[i].StartTime.Equal(sortedCMEs[j].StartTime) {
			return sortedCMEs[i].ActivityID < sortedCMEs[j].ActivityID
		}
		return sortedCMEs[i].StartTime.Before(sortedCMEs[j].StartTime)
	})

	sortedGSTs := make([]GSTEvent, len(gsts))
	copy(sortedGSTs, gsts)
	sort.Slice(sortedGSTs, func(i, j int) bool {
		if sortedGSTs[i].StartTime.Equal(sortedGSTs[j].StartTime) {
			return sortedGSTs[i].GstID < sortedGSTs[j].GstID
		}
		return sortedGSTs[i].StartTime.Before(sortedGSTs[j].StartTime)
	})

	records := make([]MergedRecord, 0, len(sortedGSTs))
	for _, gst := range sortedGSTs {
		windowStart := gst.StartTime.Add(-window)

		record := MergedRecord{GST: gst, CMEs: []MergedCME{}}
		for _, cme := range sortedCMEs {
			if cme.StartTime.Before(windowStart) {
				continue
			}
			if !cme.StartTime.Before(gst.StartTime) {
				break
			}
			record.CMEs = append(record.CMEs, MergedCME{
				CMEEvent:         cme,
				PropagationHours: gst.StartTime.Sub(cme.StartTime).Hours(),
				LinkedCME:        gst.Linked(cme.ActivityID),
			})
		}
		records = append(records, record)
	}
	return records
}
