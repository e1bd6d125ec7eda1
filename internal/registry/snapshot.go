// Package registry acquires the SEC's monthly Investment Adviser registry
// snapshot and filters recently registered firms.
package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/surgeone-ai/ria-pipeline/internal/fetcher"
	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// Candidate is one possible snapshot URL with its date label.
type Candidate struct {
	URL   string
	Label string
}

// Snapshot holds a parsed registry snapshot.
type Snapshot struct {
	Firms        []model.Firm
	TotalRecords int
	Skipped      int // rows dropped for a missing or unparseable CRD
	SnapshotDate time.Time
	SourceURL    string
}

// Options configures snapshot acquisition.
type Options struct {
	BaseURL    string
	MonthsBack int       // how many months of candidate URLs to try
	TempDir    string    // "" = os.TempDir()
	Now        time.Time // injectable for testing; zero = time.Now()
}

// Loader downloads and parses registry snapshots.
type Loader struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// NewLoader creates a snapshot Loader.
func NewLoader(f fetcher.Fetcher, opts Options) *Loader {
	if opts.MonthsBack <= 0 {
		opts.MonthsBack = 4
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Loader{fetcher: f, opts: opts}
}

// CandidateURLs builds snapshot URL candidates for recent months.
// The SEC publishes monthly archives named ia<MMDDYY>.zip, usually dated
// the 1st or 2nd of the month. Most-recent candidates come first.
func CandidateURLs(baseURL string, now time.Time, monthsBack int) []Candidate {
	var candidates []Candidate
	for monthsAgo := range monthsBack {
		year, month := now.Year(), int(now.Month())-monthsAgo
		for month <= 0 {
			month += 12
			year--
		}
		for _, day := range []int{1, 2} {
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			candidates = append(candidates, Candidate{
				URL:   fmt.Sprintf("%sia%s.zip", baseURL, d.Format("010206")),
				Label: d.Format("2006-01-02"),
			})
		}
	}
	return candidates
}

// Load downloads the most recent available snapshot, extracts it, and
// parses the firm table. Candidate URLs are tried in order with full GETs;
// the SEC blocks lightweight probe requests (HEAD, Range) from server IPs,
// so a wrong date simply 404s and the next candidate is tried.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	tempDir, err := os.MkdirTemp(l.opts.TempDir, "ria-snapshot-")
	if err != nil {
		return nil, eris.Wrap(err, "registry: create temp dir")
	}
	defer os.RemoveAll(tempDir) //nolint:errcheck

	candidates := CandidateURLs(l.opts.BaseURL, l.opts.Now, l.opts.MonthsBack)

	var zipPath, sourceURL string
	for _, c := range candidates {
		zap.L().Info("registry: trying snapshot", zap.String("label", c.Label))
		path := tempDir + "/snapshot.zip"
		if _, err := l.fetcher.DownloadToFile(ctx, c.URL, path); err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "registry: download cancelled")
			}
			zap.L().Debug("registry: candidate unavailable",
				zap.String("url", c.URL),
				zap.Error(err),
			)
			continue
		}
		zipPath, sourceURL = path, c.URL
		zap.L().Info("registry: downloaded snapshot", zap.String("label", c.Label))
		break
	}
	if zipPath == "" {
		return nil, eris.New("registry: all candidate snapshot URLs failed")
	}

	csvPath, err := fetcher.ExtractZIPSingle(zipPath, tempDir)
	if err != nil {
		return nil, eris.Wrap(err, "registry: extract snapshot")
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "registry: open snapshot CSV")
	}
	defer file.Close() //nolint:errcheck

	snap, err := ParseSnapshot(ctx, file)
	if err != nil {
		return nil, err
	}
	snap.SourceURL = sourceURL

	zap.L().Info("registry: snapshot parsed",
		zap.Int("total_records", snap.TotalRecords),
		zap.Int("skipped", snap.Skipped),
		zap.Time("snapshot_date", snap.SnapshotDate),
	)

	return snap, nil
}

// Recent returns firms registered within daysBack of the snapshot date,
// newest first.
func (s *Snapshot) Recent(daysBack int) []model.Firm {
	if s.SnapshotDate.IsZero() {
		return nil
	}
	start := s.SnapshotDate.AddDate(0, 0, -daysBack)
	return FilterByRegistration(s.Firms, start, s.SnapshotDate)
}

// FilterByRegistration selects firms registered in [start, end], inclusive,
// sorted by registration date descending.
func FilterByRegistration(firms []model.Firm, start, end time.Time) []model.Firm {
	var out []model.Firm
	for _, f := range firms {
		if f.Registered.IsZero() {
			continue
		}
		if f.Registered.Before(start) || f.Registered.After(end) {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Registered.After(out[j].Registered)
	})
	return out
}
