package main

import (
	"context"
	"time"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

// mockFetcher serves a small fixture set modeled on the May 2024 Gannon
// storm, so the full pipeline can run offline during development.
type mockFetcher struct {
	cmes []domain.RawCME
	gsts []domain.RawGST
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		cmes: []domain.RawCME{
			{
				ActivityID:     "2024-05-08T05:36:00-CME-001",
				Catalog:        "M2M_CATALOG",
				StartTime:      "2024-05-08T05:36Z",
				SourceLocation: "S18W35",
				CMEAnalyses: []domain.RawCMEAnalysis{
					{Speed: ptrF(1260), HalfAngle: ptrF(48), Type: "R", Latitude: ptrF(-16), Longitude: ptrF(32)},
				},
			},
			{
				ActivityID:     "2024-05-08T12:24:00-CME-001",
				Catalog:        "M2M_CATALOG",
				StartTime:      "2024-05-08T12:24Z",
				SourceLocation: "S19W40",
				CMEAnalyses: []domain.RawCMEAnalysis{
					{Speed: ptrF(1750), HalfAngle: ptrF(60), Type: "O"},
				},
			},
			{
				// No analysis entry: speed and half-angle stay unknown.
				ActivityID: "2024-05-09T09:12:00-CME-001",
				Catalog:    "M2M_CATALOG",
				StartTime:  "2024-05-09T09:12Z",
			},
			{
				// Far ahead of any storm; falls outside every merge window.
				ActivityID: "2024-05-01T02:00:00-CME-001",
				Catalog:    "M2M_CATALOG",
				StartTime:  "2024-05-01T02:00Z",
				CMEAnalyses: []domain.RawCMEAnalysis{
					{Speed: ptrF(420), HalfAngle: ptrF(21), Type: "S"},
				},
			},
		},
		gsts: []domain.RawGST{
			{
				GstID:     "2024-05-10T12:00:00-GST-001",
				StartTime: "2024-05-10T12:00Z",
				AllKpIndex: []domain.RawKpIndex{
					{ObservedTime: "2024-05-10T15:00Z", KpIndex: 8.33, Source: "NOAA"},
					{ObservedTime: "2024-05-10T18:00Z", KpIndex: 9, Source: "NOAA"},
					{ObservedTime: "2024-05-11T00:00Z", KpIndex: 8.67, Source: "NOAA"},
				},
				LinkedEvents: []domain.RawLinkedEvent{
					{ActivityID: "2024-05-08T05:36:00-CME-001"},
					{ActivityID: "2024-05-08T12:24:00-CME-001"},
				},
			},
			{
				// A quiet-period storm with no CME candidates in range.
				GstID:     "2024-04-25T06:00:00-GST-001",
				StartTime: "2024-04-25T06:00Z",
				AllKpIndex: []domain.RawKpIndex{
					{ObservedTime: "2024-04-25T09:00Z", KpIndex: 5.33, Source: "NOAA"},
				},
			},
		},
	}
}

func (m *mockFetcher) FetchCME(_ context.Context, _, _ time.Time) ([]domain.RawCME, error) {
	return m.cmes, nil
}

func (m *mockFetcher) FetchGST(_ context.Context, _, _ time.Time) ([]domain.RawGST, error) {
	return m.gsts, nil
}

func ptrF(v float64) *float64 { return &v }
