package dbcontext

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a connection profile, typically loaded from a yaml file. Backend
// may be left empty when the connection string is recognizable; see InferKind.
type Config struct {
	Backend Kind   `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

// LoadConfig reads a yaml connection profile.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("dbcontext: parse config %s: %w", path, err)
	}
	if cfg.DSN == "" {
		return Config{}, fmt.Errorf("dbcontext: config %s: dsn is required", path)
	}
	return cfg, nil
}

// Options tune the underlying connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Open selects the backend dialect, opens the database handle with pool
// options, verifies it with a ping, and returns a ready DB.
func Open(cfg Config, opt Options, opts ...Option) (*DB, error) {
	kind := cfg.Backend
	if kind == "" {
		var err error
		kind, err = InferKind(cfg.DSN)
		if err != nil {
			return nil, err
		}
	}
	dialect, err := DialectFor(kind)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, err
	}
	if opt.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(opt.MaxIdleConns)
	}
	if opt.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(opt.ConnMaxLifetime)
	}

	if opt.PingTimeout <= 0 {
		opt.PingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), opt.PingTimeout)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	return New(sqldb, dialect, opts...), nil
}
