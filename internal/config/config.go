// Package config holds the runtime settings of the inventory server.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Database describes how to reach the inventory database. Values are read
// from DB_* environment variables.
type Database struct {
	Driver       string `envconfig:"DB_DRIVER" default:"postgres"`
	Host         string `envconfig:"DB_HOST" default:"postgres"`
	Port         int    `envconfig:"DB_PORT" default:"5432"`
	User         string `envconfig:"DB_USER" default:"myuser"`
	Password     string `envconfig:"DB_PASSWORD" default:"mypassword"`
	Name         string `envconfig:"DB_NAME" default:"mydb"`
	SSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	Path         string `envconfig:"DB_PATH" default:"inventory.sqlite3"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
}

// DSN returns the data source name for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Validate reports unsupported settings.
func (d Database) Validate() error {
	switch d.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return errors.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}
	if d.MaxOpenConns < 1 {
		return errors.New("DB_MAX_OPEN_CONNS must be at least 1")
	}
	return nil
}

// Server holds everything the server command needs.
type Server struct {
	Host string
	Port string
	// Cache is the root directory for data written at runtime.
	Cache string
	// Public optionally overrides the embedded public assets.
	Public            string
	MaxPhotoDimension int
	DB                Database
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// UploadsDir returns the directory where uploaded photos are stored.
func (s Server) UploadsDir() string {
	return filepath.Join(s.Cache, "uploads")
}

// Validate checks the server settings.
func (s Server) Validate() error {
	if _, err := strconv.ParseUint(s.Port, 10, 16); err != nil {
		return errors.Errorf("invalid port %q", s.Port)
	}
	if s.Cache == "" {
		return errors.New("cache path must not be empty")
	}
	if s.MaxPhotoDimension < 0 {
		return errors.New("max photo dimension must not be negative")
	}
	return s.DB.Validate()
}

// LoadEnvFiles loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := godotenv.Read(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.Wrap(err, "loading env files")
	}
	return nil
}

// LoadDatabase reads the database settings from the environment.
func LoadDatabase() (Database, error) {
	var d Database
	if err := envconfig.Process("", &d); err != nil {
		return Database{}, errors.Wrap(err, "reading database settings")
	}
	return d, nil
}
