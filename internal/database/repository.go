package database

type ThermoRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountByUsername(username string) (User, error)
	CreateToken(params CreateTokenParams) (Token, error)
	GetActiveToken(tokenHash string) (Token, error)
	DeleteExpiredTokens() (int64, error)
	CreateThermostat(params CreateThermostatParams) (Thermostat, error)
	ListThermostats(userId int) ([]Thermostat, error)
	GetOwnedThermostat(thermostatId, userId int) (Thermostat, error)
	AssignThermostat(params AssignThermostatParams) error
	CreateSensor(params CreateSensorParams) (Sensor, error)
	ListSensors(userId int) ([]Sensor, error)
	ListSensorNames(userId int) ([]string, error)
	GetSensorByName(name string, thermostatId int) (Sensor, error)
	DeleteSensor(sensorId, userId int) error
}
