package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"weatherhub/server/internal/model"
)

const readingColumns = `id, device_name, reading_time, precipitation, latitude, longitude, temperature,
	atmospheric_pressure, max_wind_speed, solar_radiation, vapor_pressure, humidity, wind_direction`

// ReadingPatch is a partial update: nil fields are left untouched.
type ReadingPatch struct {
	DeviceName          *string
	ReadingDateTime     *time.Time
	Precipitation       *float64
	Latitude            *float64
	Longitude           *float64
	Temperature         *float64
	AtmosphericPressure *float64
	MaxWindSpeed        *float64
	SolarRadiation      *float64
	VaporPressure       *float64
	Humidity            *float64
	WindDirection       *float64
}

// IsEmpty reports whether the patch carries no fields at all.
func (p ReadingPatch) IsEmpty() bool {
	clauses, _ := p.setClauses(1)
	return len(clauses) == 0
}

func (p ReadingPatch) setClauses(firstArg int) ([]string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(column string, value interface{}) {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, firstArg+len(args)))
		args = append(args, value)
	}
	if p.DeviceName != nil {
		add("device_name", *p.DeviceName)
	}
	if p.ReadingDateTime != nil {
		add("reading_time", *p.ReadingDateTime)
	}
	if p.Precipitation != nil {
		add("precipitation", *p.Precipitation)
	}
	if p.Latitude != nil {
		add("latitude", *p.Latitude)
	}
	if p.Longitude != nil {
		add("longitude", *p.Longitude)
	}
	if p.Temperature != nil {
		add("temperature", *p.Temperature)
	}
	if p.AtmosphericPressure != nil {
		add("atmospheric_pressure", *p.AtmosphericPressure)
	}
	if p.MaxWindSpeed != nil {
		add("max_wind_speed", *p.MaxWindSpeed)
	}
	if p.SolarRadiation != nil {
		add("solar_radiation", *p.SolarRadiation)
	}
	if p.VaporPressure != nil {
		add("vapor_pressure", *p.VaporPressure)
	}
	if p.WindDirection != nil {
		add("wind_direction", *p.WindDirection)
	}
	if p.Humidity != nil {
		add("humidity", *p.Humidity)
	}
	return clauses, args
}

// CreateReading validates the sensor invariants and inserts the reading.
func (s *Store) CreateReading(ctx context.Context, reading model.Reading) error {
	if err := reading.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO weather_readings (`+readingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, readingArgs(reading)...)
	return err
}

// InsertReadingsBatch bulk-inserts readings and returns the inserted count.
func (s *Store) InsertReadingsBatch(ctx context.Context, readings []model.Reading) (int64, error) {
	rows := make([][]interface{}, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, readingArgs(reading))
	}
	return s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"weather_readings"},
		[]string{"id", "device_name", "reading_time", "precipitation", "latitude", "longitude", "temperature",
			"atmospheric_pressure", "max_wind_speed", "solar_radiation", "vapor_pressure", "humidity", "wind_direction"},
		pgx.CopyFromRows(rows),
	)
}

// GetAllReadings returns every reading in insertion order; a positive limit
// caps the scan.
func (s *Store) GetAllReadings(ctx context.Context, limit int) ([]model.Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM weather_readings ORDER BY id`
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = s.pool.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = s.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	return collectReadings(rows)
}

// GetReadingsByPage returns rows [page*size, page*size+size) in storage order.
// A page whose offset cannot be represented is rejected rather than allowed to
// wrap negative.
func (s *Store) GetReadingsByPage(ctx context.Context, page, size int) ([]model.Reading, error) {
	if page < 0 || size <= 0 || page > math.MaxInt/size {
		return nil, fmt.Errorf("%w: page out of range", model.ErrInvalidArgument)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+readingColumns+` FROM weather_readings ORDER BY id OFFSET $1 LIMIT $2
	`, page*size, size)
	if err != nil {
		return nil, err
	}
	return collectReadings(rows)
}

func (s *Store) GetReadingByID(ctx context.Context, id model.ObjectID) (model.Reading, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+readingColumns+` FROM weather_readings WHERE id = $1`, id.Hex())
	return scanReading(row)
}

// GetReadingsByDeviceAndHour returns the device's readings inside the hour
// bucket containing ts, projected to the hourly sample columns.
func (s *Store) GetReadingsByDeviceAndHour(ctx context.Context, deviceName string, ts time.Time) ([]model.DeviceHourReading, error) {
	startOfHour := ts.UTC().Truncate(time.Hour)
	endOfHour := startOfHour.Add(time.Hour)

	rows, err := s.pool.Query(ctx, `
		SELECT temperature, atmospheric_pressure, solar_radiation, precipitation, reading_time
		FROM weather_readings
		WHERE device_name = $1 AND reading_time >= $2 AND reading_time < $3
		ORDER BY reading_time
	`, deviceName, startOfHour, endOfHour)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []model.DeviceHourReading
	for rows.Next() {
		var sample model.DeviceHourReading
		if err := rows.Scan(&sample.Temperature, &sample.AtmosphericPressure, &sample.SolarRadiation, &sample.Precipitation, &sample.ReadingDateTime); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// GetMaxPrecipitation returns the device's highest-precipitation reading in
// the five months ending at windowEnd, or ErrNotFound when nothing matches.
// Ties break on whichever qualifying row sorts first; the ordering between
// equal precipitation values is implementation-defined.
func (s *Store) GetMaxPrecipitation(ctx context.Context, deviceName string, windowEnd time.Time) (model.Reading, error) {
	windowStart := windowEnd.AddDate(0, -5, 0)
	row := s.pool.QueryRow(ctx, `
		SELECT `+readingColumns+`
		FROM weather_readings
		WHERE device_name = $1 AND reading_time >= $2 AND reading_time <= $3
		ORDER BY precipitation DESC NULLS LAST
		LIMIT 1
	`, deviceName, windowStart, windowEnd)
	return scanReading(row)
}

// GetMaxTemperaturePerDevice returns, for every device with a reading in
// [start, end], the row holding its maximum temperature in that range.
func (s *Store) GetMaxTemperaturePerDevice(ctx context.Context, start, end time.Time) ([]model.DeviceMaxTemperature, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (device_name) device_name, reading_time, temperature
		FROM weather_readings
		WHERE reading_time >= $1 AND reading_time <= $2
		ORDER BY device_name, temperature DESC NULLS LAST
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.DeviceMaxTemperature
	for rows.Next() {
		var entry model.DeviceMaxTemperature
		if err := rows.Scan(&entry.DeviceName, &entry.ReadingDateTime, &entry.Temperature); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatePrecipitationByID patches only the precipitation field.
func (s *Store) UpdatePrecipitationByID(ctx context.Context, id model.ObjectID, precipitation float64) error {
	cmd, err := s.pool.Exec(ctx, `
		UPDATE weather_readings SET precipitation = $2 WHERE id = $1
	`, id.Hex(), precipitation)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateReadingByID merges the patch into the stored row.
func (s *Store) UpdateReadingByID(ctx context.Context, id model.ObjectID, patch ReadingPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: update carries no fields", model.ErrInvalidArgument)
	}
	clauses, args := patch.setClauses(2)
	query := `UPDATE weather_readings SET ` + strings.Join(clauses, ", ") + ` WHERE id = $1`
	cmd, err := s.pool.Exec(ctx, query, append([]interface{}{id.Hex()}, args...)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateReadings applies the patch to every listed id and returns the number
// of rows modified. The bulk update is not atomic across rows; the count is
// the source of truth.
func (s *Store) UpdateReadings(ctx context.Context, ids []model.ObjectID, patch ReadingPatch) (int64, error) {
	if patch.IsEmpty() {
		return 0, fmt.Errorf("%w: update carries no fields", model.ErrInvalidArgument)
	}
	clauses, args := patch.setClauses(2)
	query := `UPDATE weather_readings SET ` + strings.Join(clauses, ", ") + ` WHERE id = ANY($1)`
	cmd, err := s.pool.Exec(ctx, query, append([]interface{}{hexIDs(ids)}, args...)...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (s *Store) DeleteReadingByID(ctx context.Context, id model.ObjectID) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM weather_readings WHERE id = $1`, id.Hex())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteReadings removes every listed id and returns the number deleted.
func (s *Store) DeleteReadings(ctx context.Context, ids []model.ObjectID) (int64, error) {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM weather_readings WHERE id = ANY($1)`, hexIDs(ids))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// DeleteReadingWithLog reads the row, deletes it, then appends the audit
// entry attributed to deletedBy. When the append fails after the delete
// succeeded the deletion stays committed and ErrDeletionLogFailed is
// returned; there is no rollback.
func (s *Store) DeleteReadingWithLog(ctx context.Context, id model.ObjectID, deletedBy string) error {
	reading, err := s.GetReadingByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DeleteReadingByID(ctx, id); err != nil {
		return err
	}
	entry := model.NewDeletionLogEntry(reading, deletedBy, time.Now().UTC())
	if err := s.AppendDeletion(ctx, entry); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDeletionLogFailed, err)
	}
	return nil
}

func readingArgs(reading model.Reading) []interface{} {
	return []interface{}{
		reading.ID.Hex(),
		reading.DeviceName,
		reading.ReadingDateTime,
		reading.Precipitation,
		reading.Latitude,
		reading.Longitude,
		reading.Temperature,
		reading.AtmosphericPressure,
		reading.MaxWindSpeed,
		reading.SolarRadiation,
		reading.VaporPressure,
		reading.Humidity,
		reading.WindDirection,
	}
}

func hexIDs(ids []model.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func collectReadings(rows pgx.Rows) ([]model.Reading, error) {
	defer rows.Close()
	var readings []model.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

func scanReading(row pgx.Row) (model.Reading, error) {
	var reading model.Reading
	var id string
	err := row.Scan(
		&id,
		&reading.DeviceName,
		&reading.ReadingDateTime,
		&reading.Precipitation,
		&reading.Latitude,
		&reading.Longitude,
		&reading.Temperature,
		&reading.AtmosphericPressure,
		&reading.MaxWindSpeed,
		&reading.SolarRadiation,
		&reading.VaporPressure,
		&reading.Humidity,
		&reading.WindDirection,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reading{}, model.ErrNotFound
		}
		return model.Reading{}, err
	}
	reading.ID, err = model.ParseObjectID(id)
	if err != nil {
		return model.Reading{}, err
	}
	return reading, nil
}
