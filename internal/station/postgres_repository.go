package station

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource loads station records from the stations table. The table
// is expected to be maintained out of band (a periodic import of the NDBC
// active-stations feed).
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgresSource backed by the given pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Stations returns all stations ordered by id.
func (s *PostgresSource) Stations(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lat, lon
		FROM stations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lon); err != nil {
			return nil, fmt.Errorf("scanning station row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating station rows: %w", err)
	}

	return records, nil
}

// Name returns the source name.
func (s *PostgresSource) Name() string {
	return "postgres"
}
