package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

// InsertMeasurement appends m to its metric's table and returns the new row id.
func (s *SQLiteStore) InsertMeasurement(ctx context.Context, m weather.Measurement) (int64, error) {
	table, column, err := metricColumns(m.Metric)
	if err != nil {
		return 0, storageErr("insert measurement", err)
	}

	collectedAt := m.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = s.now()
	}
	observedAt := m.ObservedAt
	if observedAt.IsZero() {
		observedAt = collectedAt
	}

	var res sql.Result
	if m.Metric == weather.MetricWeather {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO weather_readings (city_id, temperature_f, condition, condition_text, observed_at, collected_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.CityID, m.Value, string(m.Condition), m.ConditionText, formatTime(observedAt), formatTime(collectedAt),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (city_id, %s, observed_at, collected_at) VALUES (?, ?, ?, ?)`, table, column),
			m.CityID, m.Value, formatTime(observedAt), formatTime(collectedAt),
		)
	}
	if err != nil {
		return 0, storageErr("insert "+string(m.Metric), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert "+string(m.Metric)+": last id", err)
	}
	return id, nil
}

// HasFreshReading reports whether a measurement of metric was collected for
// the city during the UTC calendar day containing day.
func (s *SQLiteStore) HasFreshReading(ctx context.Context, cityID int64, metric weather.Metric, day time.Time) (bool, error) {
	table, _, err := metricColumns(metric)
	if err != nil {
		return false, storageErr("fresh reading", err)
	}

	start, end := weather.DayBounds(day)
	var exists bool
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE city_id = ? AND collected_at >= ? AND collected_at < ?)`, table),
		cityID, formatTime(start), formatTime(end),
	).Scan(&exists)
	if err != nil {
		return false, storageErr("fresh reading", err)
	}
	return exists, nil
}

// Latest returns the most recently collected measurement of metric for a city.
func (s *SQLiteStore) Latest(ctx context.Context, cityID int64, metric weather.Metric) (weather.Measurement, bool, error) {
	table, column, err := metricColumns(metric)
	if err != nil {
		return weather.Measurement{}, false, storageErr("latest", err)
	}

	condCols := `'', ''`
	if metric == weather.MetricWeather {
		condCols = `condition, condition_text`
	}

	var (
		m                       weather.Measurement
		cond                    string
		observedAt, collectedAt string
	)
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, city_id, %s, %s, observed_at, collected_at FROM %s
			WHERE city_id = ? ORDER BY collected_at DESC, id DESC LIMIT 1`, column, condCols, table),
		cityID,
	).Scan(&m.ID, &m.CityID, &m.Value, &cond, &m.ConditionText, &observedAt, &collectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Measurement{}, false, nil
	}
	if err != nil {
		return weather.Measurement{}, false, storageErr("latest", err)
	}

	m.Metric = metric
	m.Condition = weather.Condition(cond)
	if m.ObservedAt, err = parseTime(observedAt); err != nil {
		return weather.Measurement{}, false, storageErr("latest: observed_at", err)
	}
	if m.CollectedAt, err = parseTime(collectedAt); err != nil {
		return weather.Measurement{}, false, storageErr("latest: collected_at", err)
	}
	return m, true, nil
}
