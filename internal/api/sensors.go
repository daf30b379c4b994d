package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/npezzotti/thermoswitch/internal/database"
	"github.com/npezzotti/thermoswitch/internal/stats"
	"github.com/npezzotti/thermoswitch/internal/types"
)

type CreateSensorRequest struct {
	Name         string `json:"name"`
	DeviceId     string `json:"deviceID"`
	ThermostatId int    `json:"thermostat_id"`
}

type ChangeSensorRequest struct {
	SensorName   string `json:"sensorName"`
	ThermostatId int    `json:"thermostat_id"`
}

func (s *ThermoswitchApp) listSensors(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sensors, err := s.db.ListSensors(ident.Id)
	if err != nil {
		s.log.Printf("failed to list sensors for user %d: %s", ident.Id, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := types.SensorsResponse{Sensors: make([]types.Sensor, 0, len(sensors))}
	for _, sn := range sensors {
		resp.Sensors = append(resp.Sensors, types.Sensor{
			Id:           sn.Id,
			Name:         sn.Name,
			DeviceId:     sn.DeviceId,
			ThermostatId: sn.ThermostatId,
		})
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *ThermoswitchApp) listSensorNames(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	names, err := s.db.ListSensorNames(ident.Id)
	if err != nil {
		s.log.Printf("failed to list sensor names for user %d: %s", ident.Id, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.SensorNamesResponse{SensorNames: names})
}

func (s *ThermoswitchApp) createSensor(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateSensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.DeviceId == "" {
		missing = append(missing, "deviceID")
	}
	if req.ThermostatId == 0 {
		missing = append(missing, "thermostat_id")
	}
	if len(missing) > 0 {
		errResp := NewMissingFieldsError(missing...)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetOwnedThermostat(req.ThermostatId, ident.Id); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewForbiddenError()
		} else {
			s.log.Printf("failed to get thermostat %d for user %d: %s", req.ThermostatId, ident.Id, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sensor, err := s.db.CreateSensor(database.CreateSensorParams{
		Name:         req.Name,
		DeviceId:     req.DeviceId,
		ThermostatId: req.ThermostatId,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrThermostatNotFound) {
			errResp = NewForbiddenError()
		} else {
			s.log.Printf("failed to create sensor %q: %s", req.Name, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.SensorsCreated)

	s.writeJson(w, http.StatusCreated, types.Sensor{
		Id:           sensor.Id,
		Name:         sensor.Name,
		DeviceId:     sensor.DeviceId,
		ThermostatId: sensor.ThermostatId,
	})
}

// deleteSensor removes a sensor after confirming the caller owns the
// thermostat it belongs to. Ownership is checked before the delete runs,
// so a forbidden sensor is never reported as missing.
func (s *ThermoswitchApp) deleteSensor(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sensorId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteSensor(sensorId, ident.Id); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, database.ErrSensorNotFound):
			errResp = NewNotFoundError()
		case errors.Is(err, database.ErrNotOwner):
			errResp = NewForbiddenError()
		default:
			s.log.Printf("failed to delete sensor %d: %s", sensorId, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.SensorsDeleted)

	s.writeJson(w, http.StatusOK, types.MessageResponse{Message: "sensor deleted successfully"})
}

// changeSensor switches a thermostat to read from one of its sensors via
// the automation agent. The sensor is looked up by name within the
// thermostat, and both must belong to the caller.
func (s *ThermoswitchApp) changeSensor(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ChangeSensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var missing []string
	if req.SensorName == "" {
		missing = append(missing, "sensorName")
	}
	if req.ThermostatId == 0 {
		missing = append(missing, "thermostat_id")
	}
	if len(missing) > 0 {
		errResp := NewMissingFieldsError(missing...)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	thermostat, err := s.db.GetOwnedThermostat(req.ThermostatId, ident.Id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewForbiddenError()
		} else {
			s.log.Printf("failed to get thermostat %d for user %d: %s", req.ThermostatId, ident.Id, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sensor, err := s.db.GetSensorByName(req.SensorName, req.ThermostatId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewForbiddenError()
		} else {
			s.log.Printf("failed to get sensor %q for thermostat %d: %s", req.SensorName, req.ThermostatId, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.activationTimeout)
	defer cancel()

	s.log.Printf("changing temperature sensor to %q for thermostat %q", sensor.Name, thermostat.Name)
	if err := s.activator.ActivateSensor(ctx, sensor.DeviceId, thermostat.DeviceId, true); err != nil {
		s.log.Printf("failed to change temperature sensor %q for thermostat %q: %s", sensor.Name, thermostat.Name, err)
		s.stats.Incr(stats.FailedSensorActivations)
		errResp := NewActivationError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.SensorActivations)

	s.writeJson(w, http.StatusOK, types.MessageResponse{
		Message: fmt.Sprintf("successfully changed temperature sensor to %q for thermostat %q", sensor.Name, thermostat.Name),
	})
}
