package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection settings for the Postgres store.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the VISUALGENOME_DB_* environment variables,
// after loading a .env file if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	LoadEnv()

	config := &DatabaseConfiguration{
		Host:     GetEnvString("VISUALGENOME_DB_HOST", ""),
		Port:     GetEnvString("VISUALGENOME_DB_PORT", "5432"),
		Database: GetEnvString("VISUALGENOME_DB_DATABASE", ""),
		Username: GetEnvString("VISUALGENOME_DB_USERNAME", ""),
		Password: GetEnvString("VISUALGENOME_DB_PASSWORD", ""),
		Schema:   GetEnvString("VISUALGENOME_DB_SCHEMA", "public"),
		SSLMode:  GetEnvString("VISUALGENOME_DB_SSLMODE", "require"),
	}

	if len(strings.TrimSpace(config.Host)) == 0 || len(strings.TrimSpace(config.Database)) == 0 || len(strings.TrimSpace(config.Username)) == 0 {
		return nil, NewError("database configuration", fmt.Errorf("VISUALGENOME_DB_HOST, VISUALGENOME_DB_DATABASE and VISUALGENOME_DB_USERNAME must be set"))
	}

	return config, nil
}

// DSN builds the lib/pq connection string.
func (c *DatabaseConfiguration) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Database bundles the connection pool with its logger.
type Database struct {
	Name     string
	Logger   *slog.Logger
	Instance *sql.DB
}

// NewDatabase opens and pings the database described by dbConfig.
func NewDatabase(name string, dbConfig *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if dbConfig == nil {
		return nil, NewError("database configuration validation", fmt.Errorf("database configuration is nil"))
	}
	if logger == nil {
		logger = NewDiscardLogger()
	}

	db := &Database{
		Name:   name,
		Logger: logger,
	}

	err := db.ConnectToDatabase(dbConfig)
	if err != nil {
		return nil, NewError("connect to database", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", dbConfig.Host), slog.String("database", dbConfig.Database))

	return db, nil
}

// ConnectToDatabase opens the pool and waits until the server answers.
func (d *Database) ConnectToDatabase(dbConfig *DatabaseConfiguration) error {
	instance, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		return NewError("open", err)
	}
	instance.SetMaxOpenConns(10)
	instance.SetMaxIdleConns(5)
	instance.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = instance.PingContext(ctx)
	if err != nil {
		instance.Close()
		return NewError("ping", err)
	}

	d.Instance = instance
	return nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
