package mysql

import "fmt"

// Config holds MySQL/MariaDB connection settings. The accounts table
// lives in the same database the legacy game server authenticates
// against, so the portal points at that database directly.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Pool settings
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultConfig returns sensible defaults for MySQL configuration
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         3306,
		Database:     "gatekeeper",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}
}

// DSN builds the data source name for the go-sql-driver
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}
