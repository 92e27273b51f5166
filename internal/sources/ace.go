package sources

import (
	"context"
	"path"
	"time"
)

// aceBase hosts the real-time ACE lists, one plain-text file per
// instrument per day.
const aceBase = "ftp://ftp.swpc.noaa.gov/pub/lists/ace/"

// NewSWEPAM returns the ACE Solar Wind Electron Proton Alpha Monitor client.
func NewSWEPAM() *Generic { return aceClient("swepam", "_ace_swepam_1m.txt") }

// NewEPAM returns the ACE Electron Proton and Alpha Monitor client.
func NewEPAM() *Generic { return aceClient("epam", "_ace_epam_5m.txt") }

// NewMAG returns the ACE magnetometer client.
func NewMAG() *Generic { return aceClient("mag", "_ace_mag_1m.txt") }

// NewSIS returns the ACE Solar Isotope Spectrometer client.
func NewSIS() *Generic { return aceClient("sis", "_ace_sis_5m.txt") }

// aceClient builds one day-file client. The lists live flat under a
// single directory with nothing but a datestamp to pattern on, so URLs
// are generated per touched day instead of through a scraper.
func aceClient(key, suffix string) *Generic {
	g := fromManifest(key)
	g.buildURLs = func(_ context.Context, req *request) ([]string, error) {
		days := req.rng.Dates()
		urls := make([]string, 0, len(days))
		for _, day := range days {
			urls = append(urls, aceBase+day.Format("20060102")+suffix)
		}
		return urls, nil
	}
	g.urlTimes = aceTimes
	return g
}

// aceTimes recovers the day a list covers from its datestamp prefix.
func aceTimes(url string) (time.Time, time.Time, bool) {
	base := path.Base(url)
	if len(base) < 8 {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse("20060102", base[:8])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.Add(24*time.Hour - time.Second), true
}
