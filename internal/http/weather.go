package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"weatherhub/server/internal/model"
	"weatherhub/server/internal/repository"
)

type readingRequest struct {
	DeviceName          string     `json:"deviceName"`
	ReadingDateTime     *time.Time `json:"readingDateTime"`
	Precipitation       *float64   `json:"precipitation"`
	Latitude            *float64   `json:"latitude"`
	Longitude           *float64   `json:"longitude"`
	Temperature         *float64   `json:"temperature"`
	AtmosphericPressure *float64   `json:"atmosphericPressure"`
	MaxWindSpeed        *float64   `json:"maxWindSpeed"`
	SolarRadiation      *float64   `json:"solarRadiation"`
	VaporPressure       *float64   `json:"vaporPressure"`
	Humidity            *float64   `json:"humidity"`
	WindDirection       *float64   `json:"windDirection"`
}

func (req readingRequest) toReading(now time.Time) model.Reading {
	reading := model.Reading{
		ID:                  model.NewObjectID(),
		DeviceName:          req.DeviceName,
		ReadingDateTime:     now,
		Precipitation:       req.Precipitation,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		Temperature:         req.Temperature,
		AtmosphericPressure: req.AtmosphericPressure,
		MaxWindSpeed:        req.MaxWindSpeed,
		SolarRadiation:      req.SolarRadiation,
		VaporPressure:       req.VaporPressure,
		Humidity:            req.Humidity,
		WindDirection:       req.WindDirection,
	}
	if req.ReadingDateTime != nil {
		reading.ReadingDateTime = req.ReadingDateTime.UTC()
	}
	return reading
}

// handleCreateReading ingests a single reading.
func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.DeviceName == "" {
		writeMessage(w, http.StatusBadRequest, "Device name is required.")
		return
	}

	// Single-reading ingest always stamps the arrival time; only the batch
	// route honors client timestamps.
	now := time.Now().UTC()
	reading := req.toReading(now)
	reading.ReadingDateTime = now
	if err := s.store.CreateReading(r.Context(), reading); err != nil {
		if errors.Is(err, model.ErrInvalidReading) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(w, r, err, "Error creating reading")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"status":  http.StatusCreated,
		"message": "Reading created successfully.",
		"data":    renderReading(reading),
	})
}

// handleInsertReadingsBatch ingests a batch for one device. Every element is
// stamped with the device name from the path, whatever the body says.
func (s *Server) handleInsertReadingsBatch(w http.ResponseWriter, r *http.Request) {
	deviceName := chi.URLParam(r, "deviceName")

	var reqs []readingRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if len(reqs) == 0 {
		writeMessage(w, http.StatusBadRequest, "Request body must be a non-empty array of readings.")
		return
	}

	now := time.Now().UTC()
	readings := make([]model.Reading, 0, len(reqs))
	for _, req := range reqs {
		reading := req.toReading(now)
		reading.DeviceName = deviceName
		if err := reading.Validate(); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		readings = append(readings, reading)
	}

	inserted, err := s.store.InsertReadingsBatch(r.Context(), readings)
	if err != nil {
		s.serverError(w, r, err, "Error inserting readings")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"status":        http.StatusCreated,
		"message":       "Readings inserted successfully.",
		"insertedCount": inserted,
	})
}

func (s *Server) handleGetAllReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.store.GetAllReadings(r.Context(), 0)
	if err != nil {
		s.serverError(w, r, err, "Error retrieving readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":      http.StatusOK,
		"message":     "Readings retrieved successfully.",
		"weatherData": renderReadings(readings),
	})
}

func (s *Server) handleGetReadingsByPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 0 {
		writeMessage(w, http.StatusBadRequest, "Page must be a non-negative integer.")
		return
	}

	readings, err := s.store.GetReadingsByPage(r.Context(), page, s.cfg.PageSize)
	if err != nil {
		if errors.Is(err, model.ErrInvalidArgument) {
			writeMessage(w, http.StatusBadRequest, "Page must be a non-negative integer.")
			return
		}
		s.serverError(w, r, err, "Error retrieving readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":      http.StatusOK,
		"message":     "Readings retrieved successfully.",
		"weatherData": renderReadings(readings),
	})
}

func (s *Server) handleGetReadingByID(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid reading id.")
		return
	}

	reading, err := s.store.GetReadingByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Reading not found.")
			return
		}
		s.serverError(w, r, err, "Error retrieving reading")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "Reading retrieved successfully.",
		"data":    renderReading(reading),
	})
}

// handleGetByDeviceAndHour returns a device's samples inside the hour bucket
// containing the dateTime query parameter.
func (s *Server) handleGetByDeviceAndHour(w http.ResponseWriter, r *http.Request) {
	deviceName := chi.URLParam(r, "deviceName")

	ts, err := parseDateTime(r.URL.Query().Get("dateTime"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "dateTime query parameter must be a valid timestamp.")
		return
	}

	samples, err := s.store.GetReadingsByDeviceAndHour(r.Context(), deviceName, ts)
	if err != nil {
		s.serverError(w, r, err, "Error retrieving readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "Readings retrieved successfully.",
		"data":    renderDeviceHourReadings(samples),
	})
}

// handleMaxPrecipitation reports the device's highest-precipitation reading
// in the five months ending on lastDay.
func (s *Server) handleMaxPrecipitation(w http.ResponseWriter, r *http.Request) {
	deviceName := chi.URLParam(r, "deviceName")

	windowEnd, err := parseDateTime(chi.URLParam(r, "lastDay"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "lastDay must be a valid date.")
		return
	}

	reading, err := s.store.GetMaxPrecipitation(r.Context(), deviceName, windowEnd)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "No readings found for the device in the requested period.")
			return
		}
		s.serverError(w, r, err, "Error retrieving readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "Reading retrieved successfully.",
		"data":    renderMaxPrecipitation(reading),
	})
}

// handleMaxTemperaturePerDevice reports, for every device with readings in
// the inclusive day range, the reading holding its maximum temperature.
func (s *Server) handleMaxTemperaturePerDevice(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDayRange(chi.URLParam(r, "startDate"), chi.URLParam(r, "endDate"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Dates must be 8-digit YYYYMMDD values.")
		return
	}

	result, err := s.store.GetMaxTemperaturePerDevice(r.Context(), start, end)
	if err != nil {
		s.serverError(w, r, err, "Error retrieving readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":  http.StatusOK,
		"message": "Readings retrieved successfully.",
		"result":  renderMaxTemperatures(result),
	})
}

type readingPatchRequest struct {
	DeviceName          *string    `json:"deviceName"`
	ReadingDateTime     *time.Time `json:"readingDateTime"`
	Precipitation       *float64   `json:"precipitation"`
	Latitude            *float64   `json:"latitude"`
	Longitude           *float64   `json:"longitude"`
	Temperature         *float64   `json:"temperature"`
	AtmosphericPressure *float64   `json:"atmosphericPressure"`
	MaxWindSpeed        *float64   `json:"maxWindSpeed"`
	SolarRadiation      *float64   `json:"solarRadiation"`
	VaporPressure       *float64   `json:"vaporPressure"`
	Humidity            *float64   `json:"humidity"`
	WindDirection       *float64   `json:"windDirection"`
}

func (req readingPatchRequest) toPatch() repository.ReadingPatch {
	return repository.ReadingPatch{
		DeviceName:          req.DeviceName,
		ReadingDateTime:     req.ReadingDateTime,
		Precipitation:       req.Precipitation,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		Temperature:         req.Temperature,
		AtmosphericPressure: req.AtmosphericPressure,
		MaxWindSpeed:        req.MaxWindSpeed,
		SolarRadiation:      req.SolarRadiation,
		VaporPressure:       req.VaporPressure,
		Humidity:            req.Humidity,
		WindDirection:       req.WindDirection,
	}
}

func (s *Server) handleUpdateReading(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid reading id.")
		return
	}

	var req readingPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := s.store.UpdateReadingByID(r.Context(), id, req.toPatch()); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidArgument):
			writeMessage(w, http.StatusBadRequest, "Update carries no fields.")
		case errors.Is(err, model.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Reading not found.")
		default:
			s.serverError(w, r, err, "Error updating reading")
		}
		return
	}

	writeMessage(w, http.StatusOK, "Reading updated successfully.")
}

type precipitationRequest struct {
	Precipitation *float64 `json:"precipitation"`
}

func (s *Server) handleUpdatePrecipitation(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid reading id.")
		return
	}

	var req precipitationRequest
	if err := decodeJSON(r, &req); err != nil || req.Precipitation == nil {
		writeMessage(w, http.StatusBadRequest, "Precipitation value is required.")
		return
	}

	if err := s.store.UpdatePrecipitationByID(r.Context(), id, *req.Precipitation); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Reading not found.")
			return
		}
		s.serverError(w, r, err, "Error updating reading")
		return
	}

	writeMessage(w, http.StatusOK, "Precipitation updated successfully.")
}

type bulkUpdateRequest struct {
	IDs    []string            `json:"ids"`
	Update readingPatchRequest `json:"update"`
}

// handleUpdateMultipleReadings applies one patch to many readings.
func (s *Server) handleUpdateMultipleReadings(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	ids, err := parseObjectIDs(req.IDs)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ids must be a non-empty list of 24-character hexadecimal strings.")
		return
	}

	modified, err := s.store.UpdateReadings(r.Context(), ids, req.Update.toPatch())
	if err != nil {
		if errors.Is(err, model.ErrInvalidArgument) {
			writeMessage(w, http.StatusBadRequest, "Update carries no fields.")
			return
		}
		s.serverError(w, r, err, "Error updating readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":        http.StatusOK,
		"message":       "Readings updated successfully.",
		"modifiedCount": modified,
	})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDeleteMultipleReadings(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	ids, err := parseObjectIDs(req.IDs)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ids must be a non-empty list of 24-character hexadecimal strings.")
		return
	}

	deleted, err := s.store.DeleteReadings(r.Context(), ids)
	if err != nil {
		s.serverError(w, r, err, "Error deleting readings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"status":       http.StatusOK,
		"message":      "Readings deleted successfully.",
		"deletedCount": deleted,
	})
}

// handleDeleteReadingWithLog removes a reading and records who removed it.
func (s *Server) handleDeleteReadingWithLog(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid reading id.")
		return
	}

	account := accountFromContext(r.Context())
	if account == nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication key missing.")
		return
	}

	if err := s.store.DeleteReadingWithLog(r.Context(), id, account.Email); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Reading not found.")
		case errors.Is(err, model.ErrDeletionLogFailed):
			s.serverError(w, r, err, "Reading deleted but the deletion could not be logged")
		default:
			s.serverError(w, r, err, "Error deleting reading")
		}
		return
	}

	writeMessage(w, http.StatusOK, "Reading deleted successfully.")
}

// parseObjectIDs validates a bulk id list. An empty list is rejected so the
// bulk operations never reach the store with nothing to do.
func parseObjectIDs(raw []string) ([]model.ObjectID, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: id list is empty", model.ErrInvalidArgument)
	}
	ids := make([]model.ObjectID, 0, len(raw))
	for _, value := range raw {
		id, err := model.ParseObjectID(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
