package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// DefaultRecordLimit caps rows returned per table when the filter does
// not set one.
const DefaultRecordLimit = 5

// Keyword lists for detecting which operational tables a query touches.
var (
	machineKeywords = []string{
		"machine", "equipment", "excavator", "bulldozer", "loader",
		"serial", "model", "location", "smr", "hours", "operating",
		"tracking", "gps", "coordinates", "delivery",
	}
	lifetimeKeywords = []string{
		"undercarriage", "uc", "track", "chain", "shoe", "bushing",
		"roller", "sprocket", "lifetime", "wear", "replacement",
		"component", "life", "condition", "sand", "rock", "soil",
	}
	inspectionKeywords = []string{
		"inspection", "inspect", "condition", "maintenance", "repair",
		"wear", "percentage", "inspector", "check", "assessment",
	}
)

// Serial numbers run letters-then-digits with at least three digits;
// shorter codes like PC210 or D155 are model designations.
var (
	serialPattern = regexp.MustCompile(`\b([A-Z]{2,4}\d{3,6})\b`)
	modelPattern  = regexp.MustCompile(`\b([A-Z]{1,2}\d{2,4})\b`)
)

// ScoredRecord pairs a structured record with its relevance score.
type ScoredRecord struct {
	Record domain.StructuredRecord
	Score  float64
}

// StructuredRetriever answers queries against the operational tables:
// machine tracking, undercarriage lifetimes and inspection history.
type StructuredRetriever struct {
	source driven.RecordSource
}

// NewStructuredRetriever creates a new structured retriever.
func NewStructuredRetriever(source driven.RecordSource) *StructuredRetriever {
	return &StructuredRetriever{source: source}
}

// DeriveFilter inspects a free-text query and builds a record filter
// from the table keywords and any serial or model tokens it carries.
// Queries with no structured signal yield an empty filter.
func (r *StructuredRetriever) DeriveFilter(query string) domain.RecordFilter {
	lower := strings.ToLower(query)
	upper := strings.ToUpper(query)

	var filter domain.RecordFilter

	if containsAny(lower, machineKeywords) {
		filter.Tables = append(filter.Tables, domain.TableMachineTracking)
	}
	if containsAny(lower, lifetimeKeywords) {
		filter.Tables = append(filter.Tables, domain.TableUCLifetime)
	}
	if containsAny(lower, inspectionKeywords) {
		filter.Tables = append(filter.Tables, domain.TableInspectionData)
	}

	if m := serialPattern.FindString(upper); m != "" {
		filter.Serial = m
	} else if m := modelPattern.FindString(upper); m != "" {
		filter.Model = m
	}

	// An identifier without table keywords still warrants a lookup
	// across everything that can match it.
	if len(filter.Tables) == 0 && (filter.Serial != "" || filter.Model != "") {
		filter.Tables = []domain.TableName{
			domain.TableMachineTracking,
			domain.TableUCLifetime,
			domain.TableInspectionData,
		}
	}

	return filter
}

// ParseFilterArgs builds a filter from explicit key=value arguments as
// passed on the command line. Recognised keys: serial, model, site,
// from, to, limit, table. Unknown keys are rejected.
func ParseFilterArgs(args []string) (domain.RecordFilter, error) {
	var filter domain.RecordFilter

	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || value == "" {
			return filter, fmt.Errorf("malformed filter %q, want key=value: %w", arg, domain.ErrInvalidInput)
		}

		switch strings.ToLower(key) {
		case "serial":
			filter.Serial = value
		case "model":
			filter.Model = value
		case "site":
			filter.Site = value
		case "from":
			t, err := parseDate(value)
			if err != nil {
				return filter, err
			}
			filter.DateFrom = t
		case "to":
			t, err := parseDate(value)
			if err != nil {
				return filter, err
			}
			filter.DateTo = t
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil {
				return filter, fmt.Errorf("limit %q: %w", value, domain.ErrInvalidInput)
			}
			filter.Limit = n
		case "table":
			for _, name := range strings.Split(value, ",") {
				filter.Tables = append(filter.Tables, domain.TableName(strings.TrimSpace(name)))
			}
		default:
			return filter, fmt.Errorf("unknown filter key %q: %w", key, domain.ErrInvalidInput)
		}
	}

	if err := filter.Validate(); err != nil {
		return filter, err
	}
	return filter, nil
}

// Retrieve queries the tables named by the filter and scores each row
// by how specifically it matches. Tables the filter does not name are
// left alone.
func (r *StructuredRetriever) Retrieve(
	ctx context.Context, filter domain.RecordFilter,
) ([]ScoredRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Empty() {
		return nil, nil
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultRecordLimit
	}

	tables := filter.Tables
	if len(tables) == 0 {
		tables = []domain.TableName{
			domain.TableMachineTracking,
			domain.TableUCLifetime,
			domain.TableInspectionData,
		}
	}

	var results []ScoredRecord

	for _, table := range tables {
		rows, err := r.queryTable(ctx, table, filter)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		results = append(results, rows...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.Debug("Structured retrieval: %d records from %d tables", len(results), len(tables))
	return results, nil
}

func (r *StructuredRetriever) queryTable(
	ctx context.Context, table domain.TableName, filter domain.RecordFilter,
) ([]ScoredRecord, error) {
	switch table {
	case domain.TableMachineTracking:
		machines, err := r.source.QueryMachines(ctx, filter)
		if err != nil {
			return nil, err
		}
		rows := make([]ScoredRecord, len(machines))
		for i, m := range machines {
			rows[i] = ScoredRecord{Record: m, Score: specificity(filter, m.Serial, m.Model)}
		}
		return rows, nil

	case domain.TableUCLifetime:
		lifetimes, err := r.source.QueryLifetimes(ctx, filter)
		if err != nil {
			return nil, err
		}
		rows := make([]ScoredRecord, len(lifetimes))
		for i, l := range lifetimes {
			rows[i] = ScoredRecord{Record: l, Score: specificity(filter, "", l.Model)}
		}
		return rows, nil

	case domain.TableInspectionData:
		inspections, err := r.source.QueryInspections(ctx, filter)
		if err != nil {
			return nil, err
		}
		rows := make([]ScoredRecord, len(inspections))
		for i, in := range inspections {
			score := specificity(filter, in.Serial, in.ModelCode) + recencyBonus(in.Date)
			rows[i] = ScoredRecord{Record: in, Score: score}
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("table %q: %w", table, domain.ErrInvalidInput)
	}
}

// specificity scores how precisely a row matches the filter: an exact
// serial beats a model match, which beats a broad site or keyword hit.
func specificity(filter domain.RecordFilter, serial, model string) float64 {
	switch {
	case filter.Serial != "" && strings.EqualFold(filter.Serial, serial):
		return 1.0
	case filter.Model != "" && strings.EqualFold(filter.Model, model):
		return 0.75
	default:
		return 0.5
	}
}

// recencyBonus favours inspections from the last year, scaling linearly
// from +0.1 for today down to nothing at twelve months.
func recencyBonus(date time.Time) float64 {
	if date.IsZero() {
		return 0
	}
	age := time.Since(date)
	year := 365 * 24 * time.Hour
	if age < 0 || age >= year {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(year))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(text, kw) {
			return true
		}
	}
	return false
}

// containsWord matches whole words so "uc" does not fire on "truck".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: %w", value, domain.ErrInvalidInput)
}
