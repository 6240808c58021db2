// Package cachesize scans the platform's cache bins for entries whose stored
// payload is either empty or large enough to strain the page-serving path.
//
// A cache bin is any table whose schema matches the platform's cache table
// shape (see IsCacheTableSchema). Every row of every bin is measured as
// stored: payloads the platform wrote serialized are measured byte for byte,
// raw string payloads are measured in their JSON-encoded form, the way the
// database cache driver would have written them.
package cachesize

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa"
	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = logging.Logger("qa/cachesize")

var tracer = otel.Tracer("qa/cachesize")

const (
	// SizeLimit is the stored payload length, in bytes, at which a cache
	// entry becomes anomalous. Entries of exactly zero length are anomalous
	// as well.
	SizeLimit = 524288

	// PreviewLimit bounds the HTML-escaped payload preview captured for an
	// anomalous entry.
	PreviewLimit = 1024
)

// CheckID identifies the cache size check in recorded results.
const CheckID = "cache_size"

// StepScanBins is the single step of the cache size check.
const StepScanBins qa.StepID = "cache_size"

// Anomaly is one cache entry whose stored payload is empty or at least
// SizeLimit bytes.
type Anomaly struct {
	Bin     string `json:"bin"`
	CID     string `json:"cid"`
	Size    int64  `json:"size"`
	Preview string `json:"preview"`
}

// BinReport is the outcome of scanning a single cache bin. A bin passes when
// it was read successfully and produced no anomalies.
type BinReport struct {
	Bin       string    `json:"bin"`
	Passed    bool      `json:"passed"`
	Err       string    `json:"error,omitempty"`
	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// Row is one line of the flattened anomaly table kept in a failing result
// payload. Sizes are formatted as plain digits.
type Row struct {
	Bin     string `json:"bin"`
	CID     string `json:"cid"`
	Size    string `json:"size"`
	Preview string `json:"preview"`
}

// Summary is the payload of a passing result.
type Summary struct {
	BinsScanned int `json:"bins_scanned"`
}

// Findings is the payload of a failing result: the per-bin reports plus the
// flattened anomaly rows.
type Findings struct {
	Bins []BinReport `json:"bins"`
	Rows []Row       `json:"rows"`
}

// API provides the cache size check over a platform repo.
type API struct {
	Repo Repo
}

var _ qa.Check = API{}

// Info describes the check and its single step.
func (a API) Info() qa.CheckInfo {
	return qa.CheckInfo{
		ID:          CheckID,
		Label:       "Cache entry sizes",
		Description: "Finds cache entries whose stored payload is empty or at least 512 KiB.",
		Steps:       []qa.StepID{StepScanBins},
	}
}

// RunStep dispatches a runner step to the scan.
func (a API) RunStep(ctx context.Context, step qa.StepID) (*qa.Result, error) {
	switch step {
	case StepScanBins:
		return a.ScanAllBins(ctx)
	default:
		return nil, fmt.Errorf("unknown cache size step: %s", step)
	}
}

// DiscoverCacheTables returns the names of every cache bin in the platform
// database, sorted. The schema catalog is re-read on every call so bins
// created or dropped since the last scan are picked up.
func (a API) DiscoverCacheTables(ctx context.Context) ([]string, error) {
	catalog, err := a.Repo.SchemaCatalog(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema catalog: %w", err)
	}
	var bins []string
	for table, columns := range catalog {
		if IsCacheTableSchema(columns) {
			bins = append(bins, table)
		}
	}
	slices.Sort(bins)
	return bins, nil
}

// ScanBin scans one cache bin and reports its anomalies. Read failures,
// including the bin disappearing between discovery and the scan, produce a
// failed report rather than an error so the remaining bins still get scanned.
func (a API) ScanBin(ctx context.Context, table string) BinReport {
	ctx, span := tracer.Start(ctx, "scan-bin", trace.WithAttributes(
		attribute.String("bin", table),
	))
	defer span.End()

	report := BinReport{Bin: table}
	exists, err := a.Repo.TableExists(ctx, table)
	if err != nil {
		report.Err = fmt.Sprintf("failed to check for cache table %s: %s", table, err)
		return report
	}
	if !exists {
		report.Err = fmt.Sprintf("cache table %s does not exist", table)
		return report
	}
	rows, err := a.Repo.CacheRows(ctx, table)
	if err != nil {
		report.Err = fmt.Sprintf("failed to read cache table %s: %s", table, err)
		return report
	}
	for _, row := range rows {
		stored := storedPayload(row)
		size := int64(len(stored))
		if size == 0 || size >= SizeLimit {
			report.Anomalies = append(report.Anomalies, Anomaly{
				Bin:     table,
				CID:     row.CID,
				Size:    size,
				Preview: preview(stored),
			})
		}
	}
	report.Passed = len(report.Anomalies) == 0
	return report
}

// ScanAllBins discovers the cache bins and scans each in turn. The result
// passes only when every bin was readable and anomaly-free.
func (a API) ScanAllBins(ctx context.Context) (*qa.Result, error) {
	ctx, span := tracer.Start(ctx, "scan-all-bins")
	defer span.End()

	bins, err := a.DiscoverCacheTables(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugf("scanning %d cache bins", len(bins))

	reports := make([]BinReport, 0, len(bins))
	passed := true
	for _, bin := range bins {
		report := a.ScanBin(ctx, bin)
		if !report.Passed {
			passed = false
		}
		reports = append(reports, report)
	}

	if passed {
		return &qa.Result{
			Step:    StepScanBins,
			Passed:  true,
			Payload: Summary{BinsScanned: len(bins)},
		}, nil
	}
	return &qa.Result{
		Step:    StepScanBins,
		Passed:  false,
		Payload: Findings{Bins: reports, Rows: flattenRows(reports)},
	}, nil
}

// storedPayload returns the bytes whose length the check measures: the
// payload exactly as stored when the platform serialized it, or the
// JSON-encoded form of a raw string payload otherwise.
func storedPayload(row model.CacheRow) []byte {
	if row.Serialized {
		return row.Data
	}
	encoded, err := json.Marshal(string(row.Data))
	if err != nil {
		// json.Marshal of a plain string does not fail.
		return row.Data
	}
	return encoded
}

// preview returns an HTML-escaped, length-bounded rendering of a stored
// payload. Truncated previews end with an ellipsis and never split a rune.
func preview(data []byte) string {
	escaped := html.EscapeString(string(data))
	if len(escaped) <= PreviewLimit {
		return escaped
	}
	cut := PreviewLimit
	for cut > 0 && !utf8.RuneStart(escaped[cut]) {
		cut--
	}
	return escaped[:cut] + "…"
}

// flattenRows collapses every anomaly into a single table ordered
// case-insensitively by bin name. Rows within a bin keep their cid order.
func flattenRows(reports []BinReport) []Row {
	sorted := slices.Clone(reports)
	slices.SortStableFunc(sorted, func(a, b BinReport) int {
		return strings.Compare(strings.ToLower(a.Bin), strings.ToLower(b.Bin))
	})
	var rows []Row
	for _, report := range sorted {
		for _, anomaly := range report.Anomalies {
			rows = append(rows, Row{
				Bin:     anomaly.Bin,
				CID:     anomaly.CID,
				Size:    strconv.FormatInt(anomaly.Size, 10),
				Preview: anomaly.Preview,
			})
		}
	}
	return rows
}
