package registry

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/surgeone-ai/ria-pipeline/internal/fetcher"
	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// Column headers in the IAPD snapshot CSV. The form item codes (5A, 5C(1),
// 5F(2)(c)) come from Form ADV Part 1.
const (
	colCompany    = "Primary Business Name"
	colLegalName  = "Legal Name"
	colCRD        = "Organization CRD#"
	colStatus     = "SEC Current Status"
	colRegistered = "SEC Status Effective Date"
	colCity       = "Main Office City"
	colState      = "Main Office State"
	colPhone      = "Main Office Telephone Number"
	colWebsite    = "Website Address"
	colEmployees  = "5A"
	colClients    = "5C(1)"
	colAUM        = "5F(2)(c)"
)

var dateLayouts = []string{"01/02/2006", "2006-01-02", "1/2/2006"}

// ParseSnapshot streams the snapshot CSV and maps rows to firms by header
// position. Rows without a parseable CRD are counted and dropped; every
// other field is best-effort. SnapshotDate is the latest registration date
// seen, which tracks the archive's publication month closely.
func ParseSnapshot(ctx context.Context, r io.Reader) (*Snapshot, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
		Latin1:    true,
	})

	var cols map[string]int
	snap := &Snapshot{}
	for row := range rowCh {
		if cols == nil {
			select {
			case header := <-headerCh:
				cols = indexColumns(header)
			default:
				return nil, eris.New("registry: snapshot CSV has no header row")
			}
			if _, ok := cols[colCRD]; !ok {
				return nil, eris.Errorf("registry: snapshot missing %q column", colCRD)
			}
		}
		snap.TotalRecords++

		firm, ok := parseRow(cols, row)
		if !ok {
			snap.Skipped++
			continue
		}
		if firm.Registered.After(snap.SnapshotDate) {
			snap.SnapshotDate = firm.Registered
		}
		snap.Firms = append(snap.Firms, firm)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "registry: parse snapshot")
	}
	if cols == nil {
		// Header only, or nothing at all.
		select {
		case <-headerCh:
			return snap, nil
		default:
			return nil, eris.New("registry: snapshot CSV is empty")
		}
	}
	return snap, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func parseRow(cols map[string]int, row []string) (model.Firm, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	crd, err := strconv.Atoi(cleanNumeric(field(colCRD)))
	if err != nil || crd <= 0 {
		return model.Firm{}, false
	}

	firm := model.Firm{
		CRD:       crd,
		Company:   field(colCompany),
		LegalName: field(colLegalName),
		Status:    field(colStatus),
		City:      field(colCity),
		State:     field(colState),
		Phone:     field(colPhone),
		Website:   field(colWebsite),
		Employees: parseCount(field(colEmployees)),
		Clients:   parseCount(field(colClients)),
		AUM:       parseAmount(field(colAUM)),
	}

	if raw := field(colRegistered); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			zap.L().Debug("registry: bad registration date",
				zap.Int("crd", crd),
				zap.String("value", raw),
			)
		} else {
			firm.Registered = ts
		}
	}
	return firm, true
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, eris.Errorf("registry: unrecognized date %q", s)
}

// cleanNumeric strips thousands separators and a trailing ".00" that the
// snapshot uses on integer-valued amounts.
func cleanNumeric(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimSuffix(s, ".00")
	return s
}

func parseCount(s string) int {
	n, err := strconv.Atoi(cleanNumeric(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseAmount(s string) int64 {
	n, err := strconv.ParseInt(cleanNumeric(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
