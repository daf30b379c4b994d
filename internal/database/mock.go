package database

import (
	"github.com/stretchr/testify/mock"
)

type MockThermoRepository struct {
	mock.Mock
}

func (m *MockThermoRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockThermoRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockThermoRepository) GetAccountByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockThermoRepository) CreateToken(params CreateTokenParams) (Token, error) {
	args := m.Called(params)
	return args.Get(0).(Token), args.Error(1)
}
func (m *MockThermoRepository) GetActiveToken(tokenHash string) (Token, error) {
	args := m.Called(tokenHash)
	return args.Get(0).(Token), args.Error(1)
}
func (m *MockThermoRepository) DeleteExpiredTokens() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockThermoRepository) CreateThermostat(params CreateThermostatParams) (Thermostat, error) {
	args := m.Called(params)
	return args.Get(0).(Thermostat), args.Error(1)
}
func (m *MockThermoRepository) ListThermostats(userId int) ([]Thermostat, error) {
	args := m.Called(userId)
	return args.Get(0).([]Thermostat), args.Error(1)
}
func (m *MockThermoRepository) GetOwnedThermostat(thermostatId, userId int) (Thermostat, error) {
	args := m.Called(thermostatId, userId)
	return args.Get(0).(Thermostat), args.Error(1)
}
func (m *MockThermoRepository) AssignThermostat(params AssignThermostatParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockThermoRepository) CreateSensor(params CreateSensorParams) (Sensor, error) {
	args := m.Called(params)
	return args.Get(0).(Sensor), args.Error(1)
}
func (m *MockThermoRepository) ListSensors(userId int) ([]Sensor, error) {
	args := m.Called(userId)
	return args.Get(0).([]Sensor), args.Error(1)
}
func (m *MockThermoRepository) ListSensorNames(userId int) ([]string, error) {
	args := m.Called(userId)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockThermoRepository) GetSensorByName(name string, thermostatId int) (Sensor, error) {
	args := m.Called(name, thermostatId)
	return args.Get(0).(Sensor), args.Error(1)
}
func (m *MockThermoRepository) DeleteSensor(sensorId, userId int) error {
	args := m.Called(sensorId, userId)
	return args.Error(0)
}
