package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/npezzotti/thermoswitch/internal/database"
	"github.com/npezzotti/thermoswitch/internal/stats"
	"github.com/npezzotti/thermoswitch/internal/types"
)

type CreateThermostatRequest struct {
	ThermostatName string `json:"thermostatName"`
	Location       string `json:"location"`
	DeviceId       string `json:"deviceId"`
}

type AssignThermostatRequest struct {
	UserId int `json:"userId"`
}

func (s *ThermoswitchApp) listThermostats(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	thermostats, err := s.db.ListThermostats(ident.Id)
	if err != nil {
		s.log.Printf("failed to list thermostats for user %d: %s", ident.Id, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.Thermostat, 0, len(thermostats))
	for _, t := range thermostats {
		resp = append(resp, types.Thermostat{
			Id:             t.Id,
			ThermostatName: t.Name,
			Location:       t.Location.String,
			DeviceId:       t.DeviceId,
		})
	}

	s.writeJson(w, http.StatusOK, resp)
}

// createThermostat inserts a thermostat and records the caller as its
// owner in a single transaction.
func (s *ThermoswitchApp) createThermostat(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateThermostatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var missing []string
	if req.ThermostatName == "" {
		missing = append(missing, "thermostatName")
	}
	if req.Location == "" {
		missing = append(missing, "location")
	}
	if req.DeviceId == "" {
		missing = append(missing, "deviceId")
	}
	if len(missing) > 0 {
		errResp := NewMissingFieldsError(missing...)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	thermostat, err := s.db.CreateThermostat(database.CreateThermostatParams{
		Name:     req.ThermostatName,
		Location: req.Location,
		DeviceId: req.DeviceId,
		OwnerId:  ident.Id,
	})
	if err != nil {
		s.log.Printf("failed to create thermostat %q: %s", req.ThermostatName, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.ThermostatsCreated)

	s.writeJson(w, http.StatusCreated, types.Thermostat{
		Id:             thermostat.Id,
		ThermostatName: thermostat.Name,
		Location:       thermostat.Location.String,
		DeviceId:       thermostat.DeviceId,
	})
}

// assignThermostat grants another user ownership of a thermostat the
// caller already owns. The caller keeps their own ownership row.
func (s *ThermoswitchApp) assignThermostat(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	thermostatId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req AssignThermostatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserId == 0 {
		errResp := NewMissingFieldsError("userId")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.AssignThermostat(database.AssignThermostatParams{
		ThermostatId: thermostatId,
		OwnerId:      ident.Id,
		TargetUserId: req.UserId,
	}); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, database.ErrThermostatNotFound):
			errResp = NewNotFoundError()
		case errors.Is(err, database.ErrNotOwner):
			errResp = NewNotOwnerError()
		case errors.Is(err, database.ErrAlreadyAssigned):
			errResp = NewAlreadyAssignedError()
		case errors.Is(err, database.ErrUserNotFound):
			errResp = NewUserNotFoundError()
		default:
			s.log.Printf("failed to assign thermostat %d to user %d: %s", thermostatId, req.UserId, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.ThermostatsAssigned)

	s.writeJson(w, http.StatusOK, types.AssignThermostatResponse{
		Message:          "thermostat assigned successfully",
		ThermostatId:     thermostatId,
		AssignedToUserId: req.UserId,
	})
}
