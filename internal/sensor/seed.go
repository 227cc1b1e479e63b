package sensor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SeedDemoData inserts a pair of demo definitions when the store is
// empty. Seeding writes through the repository directly and emits no
// change events: the rows exist before any consumer subscribes.
//
// Safe to call on every startup; a non-empty store is left untouched.
func SeedDemoData(ctx context.Context, repo Repository, logger Logger) error {
	_, total, err := repo.List(ctx, Filter{}, 1, 0)
	if err != nil {
		return fmt.Errorf("checking for existing sensors: %w", err)
	}
	if total > 0 {
		return nil
	}

	demos := []SensorDefinition{
		{
			ID:           uuid.NewString(),
			SensorID:     "temp-1",
			SensorType:   "temperature",
			Unit:         "°C",
			OperatingMin: 50,
			OperatingMax: 150,
			WarningMin:   70,
			WarningMax:   130,
			IntervalMs:   2000,
			Enabled:      true,
			Simulate:     true,
		},
		{
			ID:           uuid.NewString(),
			SensorID:     "pressure-1",
			SensorType:   "pressure",
			Unit:         "bar",
			OperatingMin: 1,
			OperatingMax: 5,
			WarningMin:   1.5,
			WarningMax:   4.5,
			IntervalMs:   3000,
			Enabled:      true,
			Simulate:     true,
		},
	}

	for i := range demos {
		if err := repo.Create(ctx, &demos[i]); err != nil {
			return fmt.Errorf("seeding sensor %s: %w", demos[i].SensorID, err)
		}
	}

	if logger != nil {
		logger.Info("demo sensors seeded", "count", len(demos))
	}
	return nil
}
