package types

type Thermostat struct {
	Id             int    `json:"id"`
	ThermostatName string `json:"thermostatName"`
	Location       string `json:"location"`
	DeviceId       string `json:"deviceId"`
}

type Sensor struct {
	Id           int    `json:"id"`
	Name         string `json:"name"`
	DeviceId     string `json:"deviceID"`
	ThermostatId int    `json:"thermostat_id"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateAccountResponse struct {
	Message string `json:"message"`
	UserId  int    `json:"userId"`
}

type AssignThermostatResponse struct {
	Message          string `json:"message"`
	ThermostatId     int    `json:"thermostatId"`
	AssignedToUserId int    `json:"assignedToUserId"`
}

type SensorsResponse struct {
	Sensors []Sensor `json:"sensors"`
}

type SensorNamesResponse struct {
	SensorNames []string `json:"sensorNames"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
