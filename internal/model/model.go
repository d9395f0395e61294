package model

import (
	"fmt"
	"time"
)

// Roles gating route access.
const (
	RoleTeacher = "Teacher"
	RoleUser    = "User"
	RoleSensor  = "Sensor"
)

// Account is a login-capable identity. AuthenticationKey is the opaque bearer
// credential issued on login; nil means logged out.
type Account struct {
	ID                ObjectID
	Email             string
	PasswordHash      string
	Role              string
	CreatedAt         time.Time
	AuthenticationKey *string
	LastLogin         *time.Time
}

// Reading is one sensor observation. Every measurement is nullable; only the
// device name and timestamp are required.
type Reading struct {
	ID                  ObjectID
	DeviceName          string
	ReadingDateTime     time.Time
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

// Validate enforces the sensor invariants: humidity at most 100%, temperature
// within [-50, 60] degrees.
func (r Reading) Validate() error {
	if r.Humidity != nil && *r.Humidity > 100 {
		return fmt.Errorf("%w: humidity cannot exceed 100%%", ErrInvalidReading)
	}
	if r.Temperature != nil && (*r.Temperature > 60 || *r.Temperature < -50) {
		return fmt.Errorf("%w: temperature cannot exceed 60°C or fall below -50°C", ErrInvalidReading)
	}
	return nil
}

// DeviceHourReading is the projection returned by the device+hour lookup.
type DeviceHourReading struct {
	Temperature         *float64
	AtmosphericPressure *float64
	SolarRadiation      *float64
	Precipitation       *float64
	ReadingDateTime     time.Time
}

// DeviceMaxTemperature is one row of the grouped per-device maximum query.
type DeviceMaxTemperature struct {
	DeviceName      string
	ReadingDateTime time.Time
	Temperature     *float64
}

// DeletionLogEntry captures a reading removed through the logged-deletion
// path. Entries are append-only and never mutated.
type DeletionLogEntry struct {
	ID         ObjectID
	OriginalID ObjectID
	Reading    Reading
	DeletedBy  string
	DeletedAt  time.Time
}

// NewDeletionLogEntry builds the audit entry for a reading about to be removed.
func NewDeletionLogEntry(reading Reading, deletedBy string, deletedAt time.Time) DeletionLogEntry {
	return DeletionLogEntry{
		ID:         NewObjectID(),
		OriginalID: reading.ID,
		Reading:    reading,
		DeletedBy:  deletedBy,
		DeletedAt:  deletedAt,
	}
}
