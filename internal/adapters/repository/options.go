package repository

import (
	"fmt"
	"time"
)

// defaultMongoTimeout bounds connect, ping, and per-operation latency.
const defaultMongoTimeout = 10 * time.Second

// MongoConfig carries MongoDB connection settings.
type MongoConfig struct {
	// URI overrides all host/credential fields when set.
	URI        string
	Host       string
	Port       int
	Username   string
	Password   string
	UseSRV     bool
	Database   string
	Collection string
	Timeout    time.Duration
}

// ConnectionURI builds the MongoDB connection string. An explicit URI wins;
// otherwise SRV deployments get the mongodb+srv form with retryable writes,
// and plain deployments get host:port with optional credentials.
func (c MongoConfig) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}
	if c.UseSRV {
		return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority", c.Username, c.Password, c.Host)
	}
	if c.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", c.Username, c.Password, c.Host, c.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", c.Host, c.Port)
}

// timeout returns the configured timeout or the default.
func (c MongoConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultMongoTimeout
}
