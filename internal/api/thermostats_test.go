package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npezzotti/thermoswitch/internal/database"
	"github.com/npezzotti/thermoswitch/internal/stats"
	"github.com/npezzotti/thermoswitch/internal/testutil"
	"github.com/npezzotti/thermoswitch/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_listThermostats(t *testing.T) {
	tcases := []struct {
		name            string
		authed          bool
		mockThermostats []database.Thermostat
		mockErr         error
		expected        []types.Thermostat
		expectedErr     *ApiError
	}{
		{
			name:   "returns thermostats for user",
			authed: true,
			mockThermostats: []database.Thermostat{
				{Id: 1, Name: "Main Floor", Location: sql.NullString{String: "Hallway", Valid: true}, DeviceId: "T3.ABC"},
				{Id: 2, Name: "Upstairs", DeviceId: "T3.DEF"},
			},
			expected: []types.Thermostat{
				{Id: 1, ThermostatName: "Main Floor", Location: "Hallway", DeviceId: "T3.ABC"},
				{Id: 2, ThermostatName: "Upstairs", Location: "", DeviceId: "T3.DEF"},
			},
		},
		{
			name:            "returns empty array when user has no thermostats",
			authed:          true,
			mockThermostats: []database.Thermostat{},
			expected:        []types.Thermostat{},
		},
		{
			name:        "fails when unauthenticated",
			authed:      false,
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "fails with db error",
			authed:      true,
			mockErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockThermoRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.authed {
				mockRepo.On("ListThermostats", 1).Return(tc.mockThermostats, tc.mockErr).Once()
			}

			app := &ThermoswitchApp{log: testutil.TestLogger(t), db: mockRepo}

			req := httptest.NewRequest(http.MethodGet, "/thermostat", nil)
			if tc.authed {
				req = req.WithContext(WithIdentity(req.Context(), Identity{Id: 1, Username: "testuser"}))
			}

			rr := httptest.NewRecorder()
			app.listThermostats(rr, req)

			if tc.expectedErr != nil {
				var apiErr ApiError
				err := json.NewDecoder(rr.Body).Decode(&apiErr)
				assert.NoError(t, err, "failed to decode error response")
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
				assert.Equal(t, *tc.expectedErr, apiErr, "expected ApiError response")
			} else {
				assert.Equal(t, http.StatusOK, rr.Code)

				var resp []types.Thermostat
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, tc.expected, resp, "expected thermostats to match")
			}
		})
	}
}

func Test_createThermostat(t *testing.T) {
	tcases := []struct {
		name        string
		authed      bool
		body        any
		mockErr     error
		success     bool
		expectedErr *ApiError
	}{
		{
			name:   "successfully creates a thermostat",
			authed: true,
			body: CreateThermostatRequest{
				ThermostatName: "Main Floor",
				Location:       "Hallway",
				DeviceId:       "T3.ABC",
			},
			success: true,
		},
		{
			name:        "fails when unauthenticated",
			authed:      false,
			body:        CreateThermostatRequest{ThermostatName: "Main Floor", Location: "Hallway", DeviceId: "T3.ABC"},
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "fails with invalid json body",
			authed:      true,
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with missing thermostatName",
			authed:      true,
			body:        CreateThermostatRequest{Location: "Hallway", DeviceId: "T3.ABC"},
			expectedErr: NewMissingFieldsError("thermostatName"),
		},
		{
			name:        "fails with missing location",
			authed:      true,
			body:        CreateThermostatRequest{ThermostatName: "Main Floor", DeviceId: "T3.ABC"},
			expectedErr: NewMissingFieldsError("location"),
		},
		{
			name:        "fails with missing deviceId",
			authed:      true,
			body:        CreateThermostatRequest{ThermostatName: "Main Floor", Location: "Hallway"},
			expectedErr: NewMissingFieldsError("deviceId"),
		},
		{
			name:        "fails with all fields missing",
			authed:      true,
			body:        CreateThermostatRequest{},
			expectedErr: NewMissingFieldsError("thermostatName", "location", "deviceId"),
		},
		{
			name:        "fails with db error",
			authed:      true,
			body:        CreateThermostatRequest{ThermostatName: "Main Floor", Location: "Hallway", DeviceId: "T3.ABC"},
			mockErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockThermoRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.success || tc.mockErr != nil {
				createReq, ok := tc.body.(CreateThermostatRequest)
				assert.Truef(t, ok, "expected body to be of type CreateThermostatRequest, got %T", tc.body)
				mockRepo.On("CreateThermostat", database.CreateThermostatParams{
					Name:     createReq.ThermostatName,
					Location: createReq.Location,
					DeviceId: createReq.DeviceId,
					OwnerId:  1,
				}).Return(database.Thermostat{
					Id:       1,
					Name:     createReq.ThermostatName,
					Location: sql.NullString{String: createReq.Location, Valid: true},
					DeviceId: createReq.DeviceId,
				}, tc.mockErr).Once()
			}

			su := &stats.MockStatsUpdater{}
			defer su.AssertExpectations(t)
			if tc.success {
				su.On("Incr", stats.ThermostatsCreated).Once()
			}

			app := &ThermoswitchApp{log: testutil.TestLogger(t), db: mockRepo, stats: su}

			var req *http.Request
			switch v := tc.body.(type) {
			case string:
				req = httptest.NewRequest(http.MethodPost, "/thermostat", strings.NewReader(v))
			case CreateThermostatRequest:
				body, err := json.Marshal(v)
				assert.NoError(t, err, "failed to marshal request body")
				req = httptest.NewRequest(http.MethodPost, "/thermostat", bytes.NewBuffer(body))
			default:
				t.Fatalf("unsupported request body type: %T", v)
			}
			if tc.authed {
				req = req.WithContext(WithIdentity(req.Context(), Identity{Id: 1, Username: "testuser"}))
			}

			rr := httptest.NewRecorder()
			app.createThermostat(rr, req)

			if tc.success {
				assert.Equal(t, http.StatusCreated, rr.Code)

				var resp types.Thermostat
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, types.Thermostat{
					Id:             1,
					ThermostatName: "Main Floor",
					Location:       "Hallway",
					DeviceId:       "T3.ABC",
				}, resp, "expected created thermostat to match")
			} else {
				var apiErr ApiError
				err := json.NewDecoder(rr.Body).Decode(&apiErr)
				assert.NoError(t, err, "failed to decode error response")
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
				assert.Equal(t, *tc.expectedErr, apiErr, "expected ApiError response")
			}
		})
	}
}

func Test_assignThermostat(t *testing.T) {
	tcases := []struct {
		name        string
		authed      bool
		pathId      string
		body        any
		mockErr     error
		success     bool
		expectedErr *ApiError
	}{
		{
			name:    "successfully assigns a thermostat",
			authed:  true,
			pathId:  "1",
			body:    AssignThermostatRequest{UserId: 2},
			success: true,
		},
		{
			name:        "fails when unauthenticated",
			authed:      false,
			pathId:      "1",
			body:        AssignThermostatRequest{UserId: 2},
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "fails with non-numeric thermostat id",
			authed:      true,
			pathId:      "abc",
			body:        AssignThermostatRequest{UserId: 2},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with invalid json body",
			authed:      true,
			pathId:      "1",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with missing userId",
			authed:      true,
			pathId:      "1",
			body:        AssignThermostatRequest{},
			expectedErr: NewMissingFieldsError("userId"),
		},
		{
			name:        "fails when thermostat does not exist",
			authed:      true,
			pathId:      "1",
			body:        AssignThermostatRequest{UserId: 2},
			mockErr:     database.ErrThermostatNotFound,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "fails when caller does not own thermostat",
			authed:      true,
			pathId:      "1",
			body:        AssignThermostatRequest{UserId: 2},
			mockErr:     database.ErrNotOwner,
			expectedErr: NewNotOwnerError(),
		},
		{
			name:        "fails when thermostat already assigned to user",
			authed:      true,
			pathId:      "1",
			body:        AssignThermostatRequest{UserId: 2},
			mockErr:     database.ErrAlreadyAssigned,
			expectedErr: NewAlreadyAssignedError(),
		},
		{
			name:        "fails when target user does not exist",
			authed:      true,
			pathId:      "1",
			body:        AssignThermostatRequest{UserId: 2},
			mockErr:     database.ErrUserNotFound,
			expectedErr: NewUserNotFoundError(),
		},
		{
			name:        "fails with db error",
			authed:      true,
			pathId:      "1",
			body:        AssignThermostatRequest{UserId: 2},
			mockErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockThermoRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.success || tc.mockErr != nil {
				mockRepo.On("AssignThermostat", database.AssignThermostatParams{
					ThermostatId: 1,
					OwnerId:      1,
					TargetUserId: 2,
				}).Return(tc.mockErr).Once()
			}

			su := &stats.MockStatsUpdater{}
			defer su.AssertExpectations(t)
			if tc.success {
				su.On("Incr", stats.ThermostatsAssigned).Once()
			}

			app := &ThermoswitchApp{log: testutil.TestLogger(t), db: mockRepo, stats: su}

			var req *http.Request
			switch v := tc.body.(type) {
			case string:
				req = httptest.NewRequest(http.MethodPost, "/thermostat/"+tc.pathId+"/assign", strings.NewReader(v))
			case AssignThermostatRequest:
				body, err := json.Marshal(v)
				assert.NoError(t, err, "failed to marshal request body")
				req = httptest.NewRequest(http.MethodPost, "/thermostat/"+tc.pathId+"/assign", bytes.NewBuffer(body))
			default:
				t.Fatalf("unsupported request body type: %T", v)
			}
			req.SetPathValue("id", tc.pathId)
			if tc.authed {
				req = req.WithContext(WithIdentity(req.Context(), Identity{Id: 1, Username: "testuser"}))
			}

			rr := httptest.NewRecorder()
			app.assignThermostat(rr, req)

			if tc.success {
				assert.Equal(t, http.StatusOK, rr.Code)

				var resp types.AssignThermostatResponse
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err, "failed to decode response")
				assert.Equal(t, types.AssignThermostatResponse{
					Message:          "thermostat assigned successfully",
					ThermostatId:     1,
					AssignedToUserId: 2,
				}, resp, "expected assignment response to match")
			} else {
				var apiErr ApiError
				err := json.NewDecoder(rr.Body).Decode(&apiErr)
				assert.NoError(t, err, "failed to decode error response")
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code, "expected status code to match")
				assert.Equal(t, *tc.expectedErr, apiErr, "expected ApiError response")
			}
		})
	}
}
