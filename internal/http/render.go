package http

import (
	"time"

	"weatherhub/server/internal/model"
)

// accountBody is the wire shape of an account. The stored bcrypt hash travels
// in the password field, matching the stored representation.
type accountBody struct {
	ID                string     `json:"_id"`
	Email             string     `json:"email"`
	Password          string     `json:"password"`
	Role              string     `json:"role"`
	CreatedAt         time.Time  `json:"createdAt"`
	AuthenticationKey *string    `json:"authenticationKey"`
	LastLogin         *time.Time `json:"lastLogin"`
}

func renderAccount(account model.Account) accountBody {
	return accountBody{
		ID:                account.ID.Hex(),
		Email:             account.Email,
		Password:          account.PasswordHash,
		Role:              account.Role,
		CreatedAt:         account.CreatedAt,
		AuthenticationKey: account.AuthenticationKey,
		LastLogin:         account.LastLogin,
	}
}

// renderAccountWithLoginFallback substitutes createdAt for accounts that have
// never logged in, so the listing always carries a usable timestamp.
func renderAccountWithLoginFallback(account model.Account) accountBody {
	body := renderAccount(account)
	if body.LastLogin == nil {
		createdAt := account.CreatedAt
		body.LastLogin = &createdAt
	}
	return body
}

func renderAccounts(accounts []model.Account) []accountBody {
	bodies := make([]accountBody, 0, len(accounts))
	for _, account := range accounts {
		bodies = append(bodies, renderAccountWithLoginFallback(account))
	}
	return bodies
}

type readingBody struct {
	ID                  string    `json:"_id"`
	DeviceName          string    `json:"deviceName"`
	ReadingDateTime     time.Time `json:"readingDateTime"`
	Precipitation       *float64  `json:"precipitation"`
	Latitude            *float64  `json:"latitude"`
	Longitude           *float64  `json:"longitude"`
	Temperature         *float64  `json:"temperature"`
	AtmosphericPressure *float64  `json:"atmosphericPressure"`
	MaxWindSpeed        *float64  `json:"maxWindSpeed"`
	SolarRadiation      *float64  `json:"solarRadiation"`
	VaporPressure       *float64  `json:"vaporPressure"`
	Humidity            *float64  `json:"humidity"`
	WindDirection       *float64  `json:"windDirection"`
}

func renderReading(reading model.Reading) readingBody {
	return readingBody{
		ID:                  reading.ID.Hex(),
		DeviceName:          reading.DeviceName,
		ReadingDateTime:     reading.ReadingDateTime,
		Precipitation:       reading.Precipitation,
		Latitude:            reading.Latitude,
		Longitude:           reading.Longitude,
		Temperature:         reading.Temperature,
		AtmosphericPressure: reading.AtmosphericPressure,
		MaxWindSpeed:        reading.MaxWindSpeed,
		SolarRadiation:      reading.SolarRadiation,
		VaporPressure:       reading.VaporPressure,
		Humidity:            reading.Humidity,
		WindDirection:       reading.WindDirection,
	}
}

type deviceHourBody struct {
	Temperature         *float64  `json:"temperature"`
	AtmosphericPressure *float64  `json:"atmosphericPressure"`
	SolarRadiation      *float64  `json:"solarRadiation"`
	Precipitation       *float64  `json:"precipitation"`
	ReadingDateTime     time.Time `json:"readingDateTime"`
}

func renderDeviceHourReadings(samples []model.DeviceHourReading) []deviceHourBody {
	bodies := make([]deviceHourBody, 0, len(samples))
	for _, sample := range samples {
		bodies = append(bodies, deviceHourBody{
			Temperature:         sample.Temperature,
			AtmosphericPressure: sample.AtmosphericPressure,
			SolarRadiation:      sample.SolarRadiation,
			Precipitation:       sample.Precipitation,
			ReadingDateTime:     sample.ReadingDateTime,
		})
	}
	return bodies
}

type maxPrecipitationBody struct {
	DeviceName      string    `json:"deviceName"`
	ReadingDateTime time.Time `json:"readingDateTime"`
	Precipitation   *float64  `json:"precipitation"`
}

func renderMaxPrecipitation(reading model.Reading) maxPrecipitationBody {
	return maxPrecipitationBody{
		DeviceName:      reading.DeviceName,
		ReadingDateTime: reading.ReadingDateTime,
		Precipitation:   reading.Precipitation,
	}
}

type maxTemperatureBody struct {
	DeviceName      string    `json:"deviceName"`
	ReadingDateTime time.Time `json:"readingDateTime"`
	Temperature     *float64  `json:"temperature"`
}

func renderMaxTemperatures(entries []model.DeviceMaxTemperature) []maxTemperatureBody {
	bodies := make([]maxTemperatureBody, 0, len(entries))
	for _, entry := range entries {
		bodies = append(bodies, maxTemperatureBody{
			DeviceName:      entry.DeviceName,
			ReadingDateTime: entry.ReadingDateTime,
			Temperature:     entry.Temperature,
		})
	}
	return bodies
}

func renderReadings(readings []model.Reading) []readingBody {
	bodies := make([]readingBody, 0, len(readings))
	for _, reading := range readings {
		bodies = append(bodies, renderReading(reading))
	}
	return bodies
}
