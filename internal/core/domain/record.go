package domain

import (
	"fmt"
	"time"
)

// TableName identifies an operational table the structured retriever may
// consult. The set is closed: anything else is rejected before query
// construction.
type TableName string

// Operational tables.
const (
	TableMachineTracking TableName = "machine_tracking"
	TableUCLifetime      TableName = "uc_life_time"
	TableInspectionData  TableName = "inspection_data"
)

// KnownTable reports whether name is one of the enumerated tables.
func KnownTable(name TableName) bool {
	switch name {
	case TableMachineTracking, TableUCLifetime, TableInspectionData:
		return true
	default:
		return false
	}
}

// StructuredRecord is a row-shaped fact pulled live from an operational
// table. Each known table has its own variant so rendering stays exhaustive
// and statically checked. Records are materialized per query, never
// persisted by this subsystem.
type StructuredRecord interface {
	// Table names the source table.
	Table() TableName

	// Key is the row's primary key rendered as a string.
	Key() string

	// Sentence is a compact natural-language rendering for LLM consumption.
	Sentence() string

	// Fields returns the raw field values for citation metadata.
	Fields() map[string]any
}

// MachineRecord is a row from the machine tracking table.
type MachineRecord struct {
	MachineID         int64
	Serial            string
	Model             string
	Type              string
	Location          string
	SMRHours          float64
	Latitude          string
	Longitude         string
	LastCommunication time.Time
}

// Table names the source table.
func (r MachineRecord) Table() TableName { return TableMachineTracking }

// Key is the row's primary key rendered as a string.
func (r MachineRecord) Key() string { return fmt.Sprintf("%d", r.MachineID) }

// Sentence renders the row as one compact sentence.
func (r MachineRecord) Sentence() string {
	return fmt.Sprintf("Machine %d serial %s model %s type %s at %s with %.0f SMR hours",
		r.MachineID, r.Serial, r.Model, r.Type, r.Location, r.SMRHours)
}

// Fields returns the raw field values for citation metadata.
func (r MachineRecord) Fields() map[string]any {
	return map[string]any{
		"machine_id":         r.MachineID,
		"serial":             r.Serial,
		"model":              r.Model,
		"type":               r.Type,
		"location":           r.Location,
		"smr_hours":          r.SMRHours,
		"latitude":           r.Latitude,
		"longitude":          r.Longitude,
		"last_communication": r.LastCommunication,
	}
}

// LifetimeRecord is a row from the undercarriage component lifetime table.
// Values are expected component life in hours per ground condition.
type LifetimeRecord struct {
	ComponentID int64
	Model       string
	Component   string
	GeneralSand float64
	Soil        float64
	Marsh       float64
	Coal        float64
	HardRock    float64
	BrittleRock float64
}

// Table names the source table.
func (r LifetimeRecord) Table() TableName { return TableUCLifetime }

// Key is the row's primary key rendered as a string.
func (r LifetimeRecord) Key() string { return fmt.Sprintf("%d", r.ComponentID) }

// Sentence renders the row as one compact sentence.
func (r LifetimeRecord) Sentence() string {
	return fmt.Sprintf("UC component %s for model %s lasts %.0f hours in general sand, %.0f in soil, %.0f in hard rock, %.0f in marsh",
		r.Component, r.Model, r.GeneralSand, r.Soil, r.HardRock, r.Marsh)
}

// Fields returns the raw field values for citation metadata.
func (r LifetimeRecord) Fields() map[string]any {
	return map[string]any{
		"component_id": r.ComponentID,
		"model":        r.Model,
		"component":    r.Component,
		"general_sand": r.GeneralSand,
		"soil":         r.Soil,
		"marsh":        r.Marsh,
		"coal":         r.Coal,
		"hard_rock":    r.HardRock,
		"brittle_rock": r.BrittleRock,
	}
}

// InspectionRecord is a row from the undercarriage inspection table.
type InspectionRecord struct {
	InspectionID   int64
	Serial         string
	Date           time.Time
	MachineType    string
	ModelCode      string
	SMRHours       float64
	InspectedBy    string
	BranchName     string
	JobSite        string
	Terrain        string
	Application    string
	Comments       string
	LinkWearLHS    float64
	LinkWearRHS    float64
	BushingWearLHS float64
}

// Table names the source table.
func (r InspectionRecord) Table() TableName { return TableInspectionData }

// Key is the row's primary key rendered as a string.
func (r InspectionRecord) Key() string { return fmt.Sprintf("%d", r.InspectionID) }

// Sentence renders the row as one compact sentence.
func (r InspectionRecord) Sentence() string {
	return fmt.Sprintf("Inspection %d of machine %s on %s model %s at %s by %s, %.0f SMR hours, terrain %s, link wear L/R %.0f/%.0f%%",
		r.InspectionID, r.Serial, r.Date.Format("2006-01-02"), r.ModelCode, r.JobSite,
		r.InspectedBy, r.SMRHours, r.Terrain, r.LinkWearLHS, r.LinkWearRHS)
}

// Fields returns the raw field values for citation metadata.
func (r InspectionRecord) Fields() map[string]any {
	return map[string]any{
		"inspection_id":    r.InspectionID,
		"serial":           r.Serial,
		"date":             r.Date,
		"machine_type":     r.MachineType,
		"model_code":       r.ModelCode,
		"smr_hours":        r.SMRHours,
		"inspected_by":     r.InspectedBy,
		"branch_name":      r.BranchName,
		"job_site":         r.JobSite,
		"terrain":          r.Terrain,
		"application":      r.Application,
		"comments":         r.Comments,
		"link_wear_lhs":    r.LinkWearLHS,
		"link_wear_rhs":    r.LinkWearRHS,
		"bushing_wear_lhs": r.BushingWearLHS,
	}
}

// RecordFilter is the validated, enumerated filter set accepted by the
// structured retriever. User text never reaches query construction directly;
// only these dimensions do.
type RecordFilter struct {
	// Serial filters by exact machine serial.
	Serial string

	// Model filters by machine/component model code.
	Model string

	// Site filters by job site or machine location substring.
	Site string

	// DateFrom and DateTo bound inspection dates when non-zero.
	DateFrom time.Time
	DateTo   time.Time

	// Limit caps rows per table. Zero means the retriever default.
	Limit int

	// Tables restricts which tables are consulted. Empty means all.
	Tables []TableName
}

// Validate rejects filters that reference unknown tables or nonsensical
// bounds.
func (f RecordFilter) Validate() error {
	for _, t := range f.Tables {
		if !KnownTable(t) {
			return fmt.Errorf("table %q: %w", t, ErrInvalidInput)
		}
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit %d: %w", f.Limit, ErrInvalidInput)
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateTo.Before(f.DateFrom) {
		return fmt.Errorf("date range inverted: %w", ErrInvalidInput)
	}
	return nil
}

// Empty reports whether no filter dimension is set.
func (f RecordFilter) Empty() bool {
	return f.Serial == "" && f.Model == "" && f.Site == "" &&
		f.DateFrom.IsZero() && f.DateTo.IsZero() && len(f.Tables) == 0
}
