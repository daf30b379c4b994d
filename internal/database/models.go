package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id           int
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Token struct {
	Id        int
	UserId    int
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Thermostat struct {
	Id        int
	Name      string
	Location  sql.NullString
	DeviceId  string
	CreatedAt time.Time
}

type Sensor struct {
	Id           int
	Name         string
	DeviceId     string
	ThermostatId int
	CreatedAt    time.Time
}

type UserThermostat struct {
	UserId       int
	ThermostatId int
	CreatedAt    time.Time
}

type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
}

type CreateTokenParams struct {
	UserId    int
	TokenHash string
	ExpiresAt time.Time
}

type CreateThermostatParams struct {
	Name     string
	Location string
	DeviceId string
	OwnerId  int
}

type AssignThermostatParams struct {
	ThermostatId int
	OwnerId      int
	TargetUserId int
}

type CreateSensorParams struct {
	Name         string
	DeviceId     string
	ThermostatId int
}
