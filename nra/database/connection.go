package database

import (
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/stdlib"
	"github.com/pkg/errors"

	"github.com/perinatalhealth/nra-app/log"
)

// Connect opens a pooled connection to the claims warehouse and verifies it
// with a bounded retry, since the pipeline often starts alongside the
// database in batch environments.
func Connect() (*sql.DB, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "could not load database config")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "could not open database connection")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)

	ping := func() error {
		if err := db.Ping(); err != nil {
			log.Pipeline.Warnf("Failed to ping database, will retry. %s", err.Error())
			return err
		}
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(ping, b); err != nil {
		return nil, errors.Wrap(err, "could not verify database connection")
	}

	return db, nil
}
