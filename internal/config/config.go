package config

import "time"

// GatewayConfig is the root configuration for a billing gateway daemon.
type GatewayConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Service   ServiceConfig   `yaml:"service"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Database  DatabaseConfig  `yaml:"database"`
	Refresh   RefreshConfig   `yaml:"refresh"`
}

// InstanceConfig identifies this gateway instance.
type InstanceConfig struct {
	ID  string `yaml:"id"`
	Env string `yaml:"env"`
}

// ServiceConfig holds billing service settings.
type ServiceConfig struct {
	URL              string        `yaml:"url"`              // WebSocket URL of the billing service
	KeyID            string        `yaml:"key_id"`           // API key ID (for BILLING-ACCESS-KEY header)
	PrivateKeyPath   string        `yaml:"private_key_path"` // Path to RSA private key PEM file
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	QueryTimeout     time.Duration `yaml:"query_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// ReconnectConfig holds connection retry settings.
type ReconnectConfig struct {
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// DatabaseConfig holds the Postgres connection for the catalog store.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RefreshConfig holds catalog refresher settings.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Products []ProductRef  `yaml:"products"`
}

// ProductRef identifies one product to keep refreshed.
type ProductRef struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
}
