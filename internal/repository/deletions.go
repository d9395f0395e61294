package repository

import (
	"context"

	"weatherhub/server/internal/model"
)

// AppendDeletion inserts an audit entry. Entries are append-only: nothing in
// the system updates or removes them.
func (s *Store) AppendDeletion(ctx context.Context, entry model.DeletionLogEntry) error {
	reading := entry.Reading
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deleted_readings (id, original_id, device_name, reading_time, precipitation, latitude, longitude,
			temperature, atmospheric_pressure, max_wind_speed, solar_radiation, vapor_pressure, humidity, wind_direction,
			deleted_by, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, entry.ID.Hex(), entry.OriginalID.Hex(), reading.DeviceName, reading.ReadingDateTime,
		reading.Precipitation, reading.Latitude, reading.Longitude, reading.Temperature,
		reading.AtmosphericPressure, reading.MaxWindSpeed, reading.SolarRadiation,
		reading.VaporPressure, reading.Humidity, reading.WindDirection,
		entry.DeletedBy, entry.DeletedAt)
	return err
}

// GetDeletionsByOriginalID returns the audit entries recorded for a reading.
func (s *Store) GetDeletionsByOriginalID(ctx context.Context, originalID model.ObjectID) ([]model.DeletionLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, original_id, device_name, reading_time, precipitation, latitude, longitude,
			temperature, atmospheric_pressure, max_wind_speed, solar_radiation, vapor_pressure, humidity, wind_direction,
			deleted_by, deleted_at
		FROM deleted_readings
		WHERE original_id = $1
		ORDER BY deleted_at
	`, originalID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.DeletionLogEntry
	for rows.Next() {
		var entry model.DeletionLogEntry
		var id, origID string
		err := rows.Scan(
			&id,
			&origID,
			&entry.Reading.DeviceName,
			&entry.Reading.ReadingDateTime,
			&entry.Reading.Precipitation,
			&entry.Reading.Latitude,
			&entry.Reading.Longitude,
			&entry.Reading.Temperature,
			&entry.Reading.AtmosphericPressure,
			&entry.Reading.MaxWindSpeed,
			&entry.Reading.SolarRadiation,
			&entry.Reading.VaporPressure,
			&entry.Reading.Humidity,
			&entry.Reading.WindDirection,
			&entry.DeletedBy,
			&entry.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		if entry.ID, err = model.ParseObjectID(id); err != nil {
			return nil, err
		}
		if entry.OriginalID, err = model.ParseObjectID(origID); err != nil {
			return nil, err
		}
		entry.Reading.ID = entry.OriginalID
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
