package database

import (
	"database/sql"
	"errors"
	"time"
)

const ownershipQuery = "SELECT user_id FROM user_thermostats WHERE user_id = $1 AND thermostat_id = $2 LIMIT 1"

func (db *PgThermoRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (username, email, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, username, email, created_at",
		params.Username,
		params.Email,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return User{}, ErrDuplicateAccount
	}

	return u, err
}

func (db *PgThermoRepository) GetAccountByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	return user, err
}

func (db *PgThermoRepository) CreateToken(params CreateTokenParams) (Token, error) {
	res := db.conn.QueryRow(
		"INSERT INTO tokens (user_id, token_hash, expires_at, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, user_id, token_hash, expires_at",
		params.UserId,
		params.TokenHash,
		params.ExpiresAt,
		time.Now().UTC(),
	)

	var t Token
	err := res.Scan(
		&t.Id,
		&t.UserId,
		&t.TokenHash,
		&t.ExpiresAt,
	)

	return t, err
}

func (db *PgThermoRepository) GetActiveToken(tokenHash string) (Token, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, token_hash, expires_at FROM tokens "+
			"WHERE token_hash = $1 AND expires_at > $2 LIMIT 1",
		tokenHash,
		time.Now().UTC(),
	)

	var t Token
	err := row.Scan(
		&t.Id,
		&t.UserId,
		&t.TokenHash,
		&t.ExpiresAt,
	)

	return t, err
}

func (db *PgThermoRepository) DeleteExpiredTokens() (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM tokens WHERE expires_at <= $1",
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// CreateThermostat inserts the thermostat and its initial ownership row
// in a single transaction so a thermostat can never exist without an
// owner.
func (db *PgThermoRepository) CreateThermostat(params CreateThermostatParams) (Thermostat, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Thermostat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO thermostat (name, location, device_id, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, name, location, device_id, created_at",
		params.Name,
		params.Location,
		params.DeviceId,
		time.Now().UTC(),
	)

	var t Thermostat
	err = res.Scan(
		&t.Id,
		&t.Name,
		&t.Location,
		&t.DeviceId,
		&t.CreatedAt,
	)
	if err != nil {
		return Thermostat{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO user_thermostats (user_id, thermostat_id, created_at) VALUES ($1, $2, $3)",
		params.OwnerId,
		t.Id,
		time.Now().UTC(),
	)
	if err != nil {
		return Thermostat{}, err
	}

	if err = tx.Commit(); err != nil {
		return Thermostat{}, err
	}

	return t, err
}

func (db *PgThermoRepository) ListThermostats(userId int) ([]Thermostat, error) {
	rows, err := db.conn.Query(
		"SELECT t.id, t.name, t.location, t.device_id, t.created_at FROM thermostat t "+
			"JOIN user_thermostats ut ON ut.thermostat_id = t.id "+
			"WHERE ut.user_id = $1 ORDER BY t.id",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var thermostats = make([]Thermostat, 0)
	for rows.Next() {
		var t Thermostat
		if err = rows.Scan(&t.Id, &t.Name, &t.Location, &t.DeviceId, &t.CreatedAt); err != nil {
			break
		}

		thermostats = append(thermostats, t)
	}

	return thermostats, err
}

func (db *PgThermoRepository) GetOwnedThermostat(thermostatId, userId int) (Thermostat, error) {
	row := db.conn.QueryRow(
		"SELECT t.id, t.name, t.location, t.device_id, t.created_at FROM thermostat t "+
			"JOIN user_thermostats ut ON ut.thermostat_id = t.id "+
			"WHERE t.id = $1 AND ut.user_id = $2 LIMIT 1",
		thermostatId,
		userId,
	)

	var t Thermostat
	err := row.Scan(
		&t.Id,
		&t.Name,
		&t.Location,
		&t.DeviceId,
		&t.CreatedAt,
	)

	return t, err
}

// AssignThermostat grants the target user ownership of a thermostat. All
// checks and the insert run in one transaction which is rolled back on
// the first failed check: the thermostat must exist, the requesting user
// must own it, the target user must not already own it, and the target
// user must exist.
func (db *PgThermoRepository) AssignThermostat(params AssignThermostatParams) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var thermostatId int
	err = tx.QueryRow(
		"SELECT id FROM thermostat WHERE id = $1 LIMIT 1",
		params.ThermostatId,
	).Scan(&thermostatId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrThermostatNotFound
		}
		return err
	}

	var ownerId int
	err = tx.QueryRow(ownershipQuery, params.OwnerId, params.ThermostatId).Scan(&ownerId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotOwner
		}
		return err
	}

	var targetOwnerId int
	err = tx.QueryRow(ownershipQuery, params.TargetUserId, params.ThermostatId).Scan(&targetOwnerId)
	if err == nil {
		err = ErrAlreadyAssigned
		return err
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var targetUserId int
	err = tx.QueryRow(
		"SELECT id FROM users WHERE id = $1 LIMIT 1",
		params.TargetUserId,
	).Scan(&targetUserId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrUserNotFound
		}
		return err
	}

	_, err = tx.Exec(
		"INSERT INTO user_thermostats (user_id, thermostat_id, created_at) VALUES ($1, $2, $3)",
		params.TargetUserId,
		params.ThermostatId,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrAlreadyAssigned
		}
		return err
	}

	return tx.Commit()
}

func (db *PgThermoRepository) CreateSensor(params CreateSensorParams) (Sensor, error) {
	res := db.conn.QueryRow(
		"INSERT INTO sensors (name, device_id, thermostat_id, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, name, device_id, thermostat_id, created_at",
		params.Name,
		params.DeviceId,
		params.ThermostatId,
		time.Now().UTC(),
	)

	var s Sensor
	err := res.Scan(
		&s.Id,
		&s.Name,
		&s.DeviceId,
		&s.ThermostatId,
		&s.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return Sensor{}, ErrThermostatNotFound
	}

	return s, err
}

func (db *PgThermoRepository) ListSensors(userId int) ([]Sensor, error) {
	rows, err := db.conn.Query(
		"SELECT s.id, s.name, s.device_id, s.thermostat_id, s.created_at FROM sensors s "+
			"JOIN thermostat t ON s.thermostat_id = t.id "+
			"JOIN user_thermostats ut ON ut.thermostat_id = t.id "+
			"WHERE ut.user_id = $1 ORDER BY s.id",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors = make([]Sensor, 0)
	for rows.Next() {
		var s Sensor
		if err = rows.Scan(&s.Id, &s.Name, &s.DeviceId, &s.ThermostatId, &s.CreatedAt); err != nil {
			break
		}

		sensors = append(sensors, s)
	}

	return sensors, err
}

func (db *PgThermoRepository) ListSensorNames(userId int) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT s.name FROM sensors s "+
			"JOIN thermostat t ON s.thermostat_id = t.id "+
			"JOIN user_thermostats ut ON ut.thermostat_id = t.id "+
			"WHERE ut.user_id = $1 ORDER BY s.id",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names = make([]string, 0)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			break
		}

		names = append(names, name)
	}

	return names, err
}

func (db *PgThermoRepository) GetSensorByName(name string, thermostatId int) (Sensor, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, device_id, thermostat_id, created_at FROM sensors "+
			"WHERE name = $1 AND thermostat_id = $2 LIMIT 1",
		name,
		thermostatId,
	)

	var s Sensor
	err := row.Scan(
		&s.Id,
		&s.Name,
		&s.DeviceId,
		&s.ThermostatId,
		&s.CreatedAt,
	)

	return s, err
}

// DeleteSensor removes a sensor owned by the user. The ownership check
// runs before the delete so an unauthorized caller is rejected whether
// or not the row still exists; a delete affecting zero rows after the
// check passes reports the sensor as missing.
func (db *PgThermoRepository) DeleteSensor(sensorId, userId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var thermostatId int
	err = tx.QueryRow(
		"SELECT thermostat_id FROM sensors WHERE id = $1 LIMIT 1",
		sensorId,
	).Scan(&thermostatId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSensorNotFound
		}
		return err
	}

	var ownerId int
	err = tx.QueryRow(ownershipQuery, userId, thermostatId).Scan(&ownerId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotOwner
		}
		return err
	}

	res, err := tx.Exec("DELETE FROM sensors WHERE id = $1", sensorId)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = ErrSensorNotFound
		return err
	}

	return tx.Commit()
}
