package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// Average returns the mean value of metric, across all cities or for one.
// ok is false when there is nothing to average.
func (s *SQLiteStore) Average(ctx context.Context, metric weather.Metric, cityID *int64) (float64, bool, error) {
	table, column, err := metricColumns(metric)
	if err != nil {
		return 0, false, storageErr("average", err)
	}

	query := fmt.Sprintf(`SELECT AVG(%s) FROM %s`, column, table)
	var args []any
	if cityID != nil {
		query += ` WHERE city_id = ?`
		args = append(args, *cityID)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, false, storageErr("average "+string(metric), err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

const cityAveragesQuery = `
SELECT c.id, c.name, w.avg_value, u.avg_value, a.avg_value
FROM cities c
LEFT JOIN (SELECT city_id, AVG(temperature_f) AS avg_value FROM weather_readings GROUP BY city_id) w
  ON w.city_id = c.id
LEFT JOIN (SELECT city_id, AVG(uv_index) AS avg_value FROM uv_readings GROUP BY city_id) u
  ON u.city_id = c.id
LEFT JOIN (SELECT city_id, AVG(aqi) AS avg_value FROM air_quality_readings GROUP BY city_id) a
  ON a.city_id = c.id
ORDER BY c.id`

// CityAverages returns the three per-metric averages of every known city, in
// discovery order. Metrics without readings are nil.
func (s *SQLiteStore) CityAverages(ctx context.Context) ([]weather.CityAverages, error) {
	rows, err := s.db.QueryContext(ctx, cityAveragesQuery)
	if err != nil {
		return nil, storageErr("city averages", err)
	}
	defer rows.Close()

	out := []weather.CityAverages{}
	for rows.Next() {
		var (
			ca           weather.CityAverages
			temp, uv, aq sql.NullFloat64
		)
		if err := rows.Scan(&ca.City.ID, &ca.City.Name, &temp, &uv, &aq); err != nil {
			return nil, storageErr("city averages: scan", err)
		}
		ca.TemperatureF = nullable(temp)
		ca.UVIndex = nullable(uv)
		ca.AQI = nullable(aq)
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("city averages", err)
	}
	return out, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
