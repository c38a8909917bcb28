package sensors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Latest is deliberately not filtered by user: readings carry no owner.
func (r *PostgresRepository) Latest(ctx context.Context) (*models.SensorReading, error) {
	query :=
		`SELECT pm1_0, pm2_5, pm10, no2, timestamp FROM sensor_data
		 ORDER BY timestamp DESC
		 LIMIT 1`

	reading := &models.SensorReading{}
	err := r.db.QueryRowContext(ctx, query).
		Scan(&reading.PM1, &reading.PM25, &reading.PM10, &reading.NO2, &reading.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return reading, nil
}
