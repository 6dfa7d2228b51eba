package driven

import (
	"context"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// RecordSource queries the operational tables (machine tracking,
// undercarriage lifetime, inspections). Queries are bounded and built only
// from the validated domain.RecordFilter dimensions; raw user text never
// reaches SQL construction.
type RecordSource interface {
	// QueryMachines returns machine tracking rows matching the filter.
	QueryMachines(ctx context.Context, filter domain.RecordFilter) ([]domain.MachineRecord, error)

	// QueryLifetimes returns component lifetime rows matching the filter.
	QueryLifetimes(ctx context.Context, filter domain.RecordFilter) ([]domain.LifetimeRecord, error)

	// QueryInspections returns inspection rows matching the filter,
	// most recent first.
	QueryInspections(ctx context.Context, filter domain.RecordFilter) ([]domain.InspectionRecord, error)

	// Close releases the underlying connection.
	Close() error
}
