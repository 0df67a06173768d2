package config

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// EnsureDatabase creates the configured database when it does not exist yet.
// It connects to the "postgres" maintenance database with the same credentials.
func EnsureDatabase(cfg *Config) error {
	dbName, adminDSN, err := adminConnection(cfg)
	if err != nil {
		return err
	}
	if dbName == "" {
		return errors.New("database name is empty")
	}

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping admin connection: %w", err)
	}

	var exists bool
	err = db.QueryRow("SELECT true FROM pg_database WHERE datname = $1", dbName).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	zap.L().Info("database created", zap.String("name", dbName))
	return nil
}

// adminConnection returns the target database name and a DSN pointing at the
// maintenance database. Both URL and keyword/value DSNs are accepted.
func adminConnection(cfg *Config) (string, string, error) {
	dsn := cfg.DSN()
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse database url: %w", err)
		}
		dbName := strings.TrimPrefix(u.Path, "/")
		u.Path = "/postgres"
		return dbName, u.String(), nil
	}

	var dbName string
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if v, ok := strings.CutPrefix(f, "dbname="); ok {
			dbName = v
			fields[i] = "dbname=postgres"
		}
	}
	return dbName, strings.Join(fields, " "), nil
}
