package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

func TestDeriveFilter(t *testing.T) {
	r := NewStructuredRetriever(&mockRecordSource{})

	tests := []struct {
		name       string
		query      string
		wantTables []domain.TableName
		wantSerial string
		wantModel  string
	}{
		{
			name:       "machine keywords",
			query:      "where is the excavator located",
			wantTables: []domain.TableName{domain.TableMachineTracking},
		},
		{
			name:       "undercarriage keywords",
			query:      "expected bushing lifetime in hard rock",
			wantTables: []domain.TableName{domain.TableUCLifetime},
		},
		{
			name:       "inspection keywords",
			query:      "latest inspection results",
			wantTables: []domain.TableName{domain.TableInspectionData},
		},
		{
			name:  "serial token widens to all tables",
			query: "tell me about ABC1234",
			wantTables: []domain.TableName{
				domain.TableMachineTracking,
				domain.TableUCLifetime,
				domain.TableInspectionData,
			},
			wantSerial: "ABC1234",
		},
		{
			name:       "model token with keyword",
			query:      "bushing lifetime for a D65 chain",
			wantTables: []domain.TableName{domain.TableUCLifetime},
			wantModel:  "D65",
		},
		{
			name:       "serial beats model when both could match",
			query:      "machine ABC123 status",
			wantTables: []domain.TableName{domain.TableMachineTracking},
			wantSerial: "ABC123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := r.DeriveFilter(tt.query)
			assert.Equal(t, tt.wantTables, filter.Tables)
			assert.Equal(t, tt.wantSerial, filter.Serial)
			assert.Equal(t, tt.wantModel, filter.Model)
		})
	}
}

func TestDeriveFilter_NoSignal(t *testing.T) {
	r := NewStructuredRetriever(&mockRecordSource{})

	filter := r.DeriveFilter("what is the weather today")
	assert.True(t, filter.Empty())
}

func TestDeriveFilter_WholeWordMatching(t *testing.T) {
	r := NewStructuredRetriever(&mockRecordSource{})

	// "truck" must not trigger the "uc" keyword.
	filter := r.DeriveFilter("the truck arrived yesterday")
	assert.NotContains(t, filter.Tables, domain.TableUCLifetime)
}

func TestParseFilterArgs(t *testing.T) {
	filter, err := ParseFilterArgs([]string{
		"serial=ABC1234",
		"model=PC210",
		"site=North Mine",
		"from=2026-01-01",
		"to=2026-06-30",
		"limit=10",
		"table=machine_tracking,inspection_data",
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC1234", filter.Serial)
	assert.Equal(t, "PC210", filter.Model)
	assert.Equal(t, "North Mine", filter.Site)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), filter.DateFrom)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), filter.DateTo)
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, []domain.TableName{domain.TableMachineTracking, domain.TableInspectionData}, filter.Tables)
}

func TestParseFilterArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown key", args: []string{"colour=red"}},
		{name: "missing value", args: []string{"serial="}},
		{name: "no equals", args: []string{"serial"}},
		{name: "bad date", args: []string{"from=yesterday"}},
		{name: "bad limit", args: []string{"limit=many"}},
		{name: "unknown table", args: []string{"table=payroll"}},
		{name: "inverted dates", args: []string{"from=2026-06-01", "to=2026-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilterArgs(tt.args)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRetrieve_ScoresBySpecificity(t *testing.T) {
	source := &mockRecordSource{
		machines: []domain.MachineRecord{
			{MachineID: 1, Serial: "ABC1234", Model: "PC210"},
			{MachineID: 2, Serial: "XYZ9999", Model: "PC210"},
			{MachineID: 3, Serial: "QQQ1111", Model: "D155"},
		},
	}
	r := NewStructuredRetriever(source)

	rows, err := r.Retrieve(context.Background(), domain.RecordFilter{
		Serial: "ABC1234",
		Tables: []domain.TableName{domain.TableMachineTracking},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Exact serial match ranks first.
	assert.Equal(t, "1", rows[0].Record.Key())
	assert.InDelta(t, 1.0, rows[0].Score, 1e-9)
	assert.InDelta(t, 0.5, rows[1].Score, 1e-9)
}

func TestRetrieve_InspectionRecency(t *testing.T) {
	source := &mockRecordSource{
		inspections: []domain.InspectionRecord{
			{InspectionID: 1, Serial: "ABC1234", Date: time.Now().AddDate(0, 0, -7)},
			{InspectionID: 2, Serial: "ABC1234", Date: time.Now().AddDate(-3, 0, 0)},
		},
	}
	r := NewStructuredRetriever(source)

	rows, err := r.Retrieve(context.Background(), domain.RecordFilter{
		Serial: "ABC1234",
		Tables: []domain.TableName{domain.TableInspectionData},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// The recent inspection carries a recency bonus; the old one does not.
	assert.Equal(t, "1", rows[0].Record.Key())
	assert.Greater(t, rows[0].Score, rows[1].Score)
	assert.InDelta(t, 1.0, rows[1].Score, 1e-9)
}

func TestRetrieve_EmptyFilter(t *testing.T) {
	r := NewStructuredRetriever(&mockRecordSource{})

	rows, err := r.Retrieve(context.Background(), domain.RecordFilter{})
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestRetrieve_SourceError(t *testing.T) {
	source := &mockRecordSource{queryErr: errors.New("database locked")}
	r := NewStructuredRetriever(source)

	_, err := r.Retrieve(context.Background(), domain.RecordFilter{Serial: "ABC1234"})
	require.Error(t, err)
}

func TestRetrieve_InvalidFilter(t *testing.T) {
	r := NewStructuredRetriever(&mockRecordSource{})

	_, err := r.Retrieve(context.Background(), domain.RecordFilter{
		Tables: []domain.TableName{"payroll"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
