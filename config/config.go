package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH = "./res/config.yaml"

	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	DatabaseMongo    = "mongo"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// RequiredMongoCollections must all be listed in valid_collections.
var RequiredMongoCollections = []string{"users", "recipes", "counters"}

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName    string         `yaml:"service_name" validate:"required"`
	LogLevel       string         `yaml:"loglevel" validate:"required"`
	Host           string         `yaml:"host" validate:"required"`
	Port           string         `yaml:"port" validate:"required"`
	PrivateKeyPath string         `yaml:"private_key_path" validate:"required"`
	Session        SessionConfig  `yaml:"session"`
	Password       PasswordConfig `yaml:"password"`
	Database       Database       `yaml:"database"`
}

// SessionConfig controls the session cookie and where session state lives.
type SessionConfig struct {
	CookieName   string      `yaml:"cookie_name" validate:"required"`
	SecureCookie bool        `yaml:"secure_cookie"`
	Store        string      `yaml:"store" validate:"required,oneof=memory redis"`
	KeyPrefix    string      `yaml:"key_prefix"`
	Redis        RedisConfig `yaml:"redis_config" validate:"-"`
}

type RedisConfig struct {
	Address  string `yaml:"address" validate:"required,hostname_port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// PasswordConfig tunes password hashing. Zero values select the defaults.
type PasswordConfig struct {
	Cost                int `yaml:"cost" validate:"omitempty,min=4,max=31"`
	MaxConcurrentHashes int `yaml:"max_concurrent_hashes" validate:"gte=0"`
}

type Database struct {
	Type string `yaml:"type" validate:"required,oneof=memory postgres mongo"`
	// For MongoDB
	MongoDB MongoDBConfig `yaml:"mongodb_config" validate:"-"`
	// For PostgreSQL
	Postgres PostgresConfig `yaml:"postgres_config" validate:"-"`
}

// MongoDBConfig holds the MongoDB connection settings. The DSN path names the database.
type MongoDBConfig struct {
	DSN              string             `yaml:"dsn" validate:"required"`
	Timeout          time.Duration      `yaml:"timeout"`
	Options          MongoServerOptions `yaml:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections" validate:"required,min=1"`
}

type PostgresConfig struct {
	DSN     string                `yaml:"dsn" validate:"required"`
	Options PostgresServerOptions `yaml:"postgres_server_options"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// It unmarshals the YAML content into a ServiceConfig struct and returns it.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct tags of the configuration and then the settings
// of the selected session store and database backend.
func (c *ServiceConfig) Validate(validator *structValidator.Validate) error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.Session.Store == SessionStoreRedis {
		if err := validator.Struct(c.Session.Redis); err != nil {
			return fmt.Errorf("validation error in redis_config: %w", err)
		}
	}

	switch c.Database.Type {
	case DatabaseMongo:
		if err := validator.Struct(c.Database.MongoDB); err != nil {
			return fmt.Errorf("validation error in mongodb_config: %w", err)
		}
		for _, name := range RequiredMongoCollections {
			if !slices.Contains(c.Database.MongoDB.ValidCollections, name) {
				return fmt.Errorf("validation error in mongodb_config: valid_collections is missing %q", name)
			}
		}
	case DatabasePostgres:
		if err := validator.Struct(c.Database.Postgres); err != nil {
			return fmt.Errorf("validation error in postgres_config: %w", err)
		}
	}

	return nil
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
