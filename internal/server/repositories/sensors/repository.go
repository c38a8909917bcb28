// Package sensors reads air-quality readings written by the sensor pipeline.
package sensors

import (
	"context"

	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

type Repository interface {
	// Latest returns the most recent reading across all sensors, or
	// common.ErrorNotFound when the table is empty.
	Latest(ctx context.Context) (*models.SensorReading, error)
}
