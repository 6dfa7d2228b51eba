// Package sqlite reads the operational tables exported from the fleet
// tracking system: Machine_Tracking, UC_Life_Time and InspectionData.
// The export arrives as a standalone SQLite file; this adapter only
// ever reads from it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

// Source queries the operational tables over a read-only connection.
type Source struct {
	db *sql.DB
}

// New opens the records database at path.
func New(path string) (*Source, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("records database %s: %w", path, domain.ErrNotFound)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening records database: %w", err)
	}
	return &Source{db: db}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// QueryMachines returns machine tracking rows matching the filter.
func (s *Source) QueryMachines(ctx context.Context, filter domain.RecordFilter) ([]domain.MachineRecord, error) {
	query := `
		SELECT ID, Serial, Model, Type, Machine_Location, SMR_Hours,
		       Latitude, Longitude, Last_Communication_Date
		FROM Machine_Tracking
	`
	where, args := machineConditions(filter)
	query += where + " ORDER BY SMR_Hours DESC" + limitClause(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying machines: %w", err)
	}
	defer rows.Close()

	var records []domain.MachineRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.MachineRecord
		var lat, lon sql.NullString
		var lastComm sql.NullTime
		if err := rows.Scan(&rec.MachineID, &rec.Serial, &rec.Model, &rec.Type,
			&rec.Location, &rec.SMRHours, &lat, &lon, &lastComm); err != nil {
			return nil, fmt.Errorf("scanning machine: %w", err)
		}
		rec.Latitude = lat.String
		rec.Longitude = lon.String
		if lastComm.Valid {
			rec.LastCommunication = lastComm.Time
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating machines: %w", err)
	}
	return records, nil
}

// QueryLifetimes returns undercarriage lifetime rows matching the filter.
func (s *Source) QueryLifetimes(ctx context.Context, filter domain.RecordFilter) ([]domain.LifetimeRecord, error) {
	query := `
		SELECT ID, Model, Component, General_Sand, Soil, Marsh, Coal,
		       Hard_Rock, Brittle_Rock
		FROM UC_Life_Time
	`
	var conditions []string
	var args []any
	if filter.Model != "" {
		conditions = append(conditions, "Model = ? COLLATE NOCASE")
		args = append(args, filter.Model)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ID" + limitClause(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lifetimes: %w", err)
	}
	defer rows.Close()

	var records []domain.LifetimeRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.LifetimeRecord
		if err := rows.Scan(&rec.ComponentID, &rec.Model, &rec.Component,
			&rec.GeneralSand, &rec.Soil, &rec.Marsh, &rec.Coal,
			&rec.HardRock, &rec.BrittleRock); err != nil {
			return nil, fmt.Errorf("scanning lifetime: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lifetimes: %w", err)
	}
	return records, nil
}

// QueryInspections returns inspection rows matching the filter, newest
// first.
func (s *Source) QueryInspections(ctx context.Context, filter domain.RecordFilter) ([]domain.InspectionRecord, error) {
	query := `
		SELECT ID, Serial_No, Inspection_Date, Machine_Type, Model_Code, SMR,
		       Inspected_By, Branch_Name, Job_Site, UnderfootConditions_Terrain,
		       Application_Ground, Comments,
		       LinkPitch_PercentWorn_LHS, LinkPitch_PercentWorn_RHS,
		       Bushings_PercentWorn_LHS
		FROM InspectionData
	`
	where, args := inspectionConditions(filter)
	query += where + " ORDER BY Inspection_Date DESC" + limitClause(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying inspections: %w", err)
	}
	defer rows.Close()

	var records []domain.InspectionRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.InspectionRecord
		var date sql.NullTime
		var inspectedBy, branch, site, terrain, application, comments sql.NullString
		var linkLHS, linkRHS, bushingLHS sql.NullFloat64
		if err := rows.Scan(&rec.InspectionID, &rec.Serial, &date, &rec.MachineType,
			&rec.ModelCode, &rec.SMRHours, &inspectedBy, &branch, &site, &terrain,
			&application, &comments, &linkLHS, &linkRHS, &bushingLHS); err != nil {
			return nil, fmt.Errorf("scanning inspection: %w", err)
		}
		if date.Valid {
			rec.Date = date.Time
		}
		rec.InspectedBy = inspectedBy.String
		rec.BranchName = branch.String
		rec.JobSite = site.String
		rec.Terrain = terrain.String
		rec.Application = application.String
		rec.Comments = comments.String
		rec.LinkWearLHS = linkLHS.Float64
		rec.LinkWearRHS = linkRHS.Float64
		rec.BushingWearLHS = bushingLHS.Float64
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inspections: %w", err)
	}
	return records, nil
}

func machineConditions(filter domain.RecordFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Serial != "" {
		conditions = append(conditions, "Serial = ? COLLATE NOCASE")
		args = append(args, filter.Serial)
	}
	if filter.Model != "" {
		conditions = append(conditions, "Model = ? COLLATE NOCASE")
		args = append(args, filter.Model)
	}
	if filter.Site != "" {
		conditions = append(conditions, "Machine_Location LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.Site+"%")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func inspectionConditions(filter domain.RecordFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Serial != "" {
		conditions = append(conditions, "Serial_No = ? COLLATE NOCASE")
		args = append(args, filter.Serial)
	}
	if filter.Model != "" {
		conditions = append(conditions, "Model_Code = ? COLLATE NOCASE")
		args = append(args, filter.Model)
	}
	if filter.Site != "" {
		conditions = append(conditions, "Job_Site LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.Site+"%")
	}
	if !filter.DateFrom.IsZero() {
		conditions = append(conditions, "Inspection_Date >= ?")
		args = append(args, filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		conditions = append(conditions, "Inspection_Date <= ?")
		args = append(args, filter.DateTo)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func limitClause(filter domain.RecordFilter) string {
	if filter.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return ""
}
