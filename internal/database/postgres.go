package database

import (
	"database/sql"
)

type PgThermoRepository struct {
	conn *sql.DB
}

func NewPgThermoRepository(dsn string) (*PgThermoRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgThermoRepository{conn: db}, nil
}

func (db *PgThermoRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgThermoRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
