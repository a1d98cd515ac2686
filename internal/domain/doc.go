// Package domain models NASA DONKI space weather events.
//
// # Data Source
//
// Events come from NASA's Space Weather Database Of Notifications, Knowledge,
// Information (DONKI), https://api.nasa.gov/DONKI. Two endpoints are used:
//
//	/CME  Coronal Mass Ejections, eruptions of solar plasma
//	/GST  Geomagnetic Storms, disturbances of Earth's magnetosphere
//
// Both accept startDate/endDate (YYYY-MM-DD) and return a JSON array.
// The API limits a single query to one year of data and has records from
// 2010 onwards.
//
// # DONKI Conventions
//
// Timestamps:
//
//	Minute resolution without seconds: "2024-05-10T17:12Z".
//	Some derived records carry full RFC 3339 stamps; both are accepted and
//	normalized to UTC.
//
// CME analyses:
//
//	A CME record carries zero or more "cmeAnalyses" entries with measured
//	speed (km/s), halfAngle (degrees), type (S/C/O/R by speed class), and
//	the source latitude/longitude. The first entry is the authoritative one.
//	Measurements can be null; a null speed means "not measured", which the
//	domain keeps as a nil pointer, never as 0.
//
// Kp index:
//
//	GST records carry "allKpIndex", 3-hourly planetary K-index observations
//	on the 0–9 scale. Kp >= 5 corresponds to NOAA storm level G1.
//
// Linked events:
//
//	DONKI cross-references activities; a GST's "linkedEvents" usually names
//	the CME(s) believed to have caused it. IDs embed the event kind, e.g.
//	"2024-05-08T05:36:00-CME-001".
//
// # Merging
//
// [Merge] associates each storm with every CME whose start time lies in
// the half-open interval [gst.start-window, gst.start). Typical Sun-to-Earth
// transit is 1–3 days, so windows in the 1–5 day range are sensible. The
// window join is authoritative; DONKI's own linkage is only surfaced as the
// LinkedCME flag on each candidate.
package domain
