// Config loading for the schemadrift CLI. Settings resolve from a config
// file, SCHEMADRIFT_* environment variables, and flag overrides, in
// increasing precedence.
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wayfarerhq/schemadrift/internal/db"
)

const (
	envPrefix       = "SCHEMADRIFT"
	configFileName  = "schemadrift"
	configFileType  = "yaml"
	defaultModels   = "db/models.yaml"
	defaultDir      = "db/migrations"
	defaultReport   = "drift-report.json"
	defaultEnvName  = "development"
	defaultTimeout  = 30 * time.Second
	defaultMaxConns = 4
)

// Config validation errors.
var errNoDatabase = errors.New("no database configured: set database.url or database.host/database.database")

type config struct {
	Database      db.Config `mapstructure:"database"`
	SchemaName    string    `mapstructure:"schema_name"`
	ModelsPath    string    `mapstructure:"models_path"`
	MigrationsDir string    `mapstructure:"migrations_dir"`
	ReportPath    string    `mapstructure:"report_path"`
	Environment   string    `mapstructure:"environment"`

	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	ExcludeTables    []string      `mapstructure:"exclude_tables"`
	ExcludePrefixes  []string      `mapstructure:"exclude_prefixes"`
}

func (c *config) validate() error {
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Database == "") {
		return errNoDatabase
	}
	return nil
}

// loadConfig reads the config file (optional unless explicitly named) and
// layers SCHEMADRIFT_* environment variables on top. Database credentials
// normally arrive via the environment, e.g. SCHEMADRIFT_DATABASE_URL.
func loadConfig(configFile string) (*config, error) {
	v := viper.New()

	v.SetDefault("schema_name", "public")
	v.SetDefault("models_path", defaultModels)
	v.SetDefault("migrations_dir", defaultDir)
	v.SetDefault("report_path", defaultReport)
	v.SetDefault("environment", defaultEnvName)
	v.SetDefault("statement_timeout", defaultTimeout)
	v.SetDefault("database.max_conns", defaultMaxConns)

	// Viper only layers environment variables over keys it knows about, so
	// every database key gets an explicit (empty) default.
	for _, key := range []string{
		"database.url", "database.host", "database.user",
		"database.password", "database.database", "database.sslmode",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("database.port", 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is not an error; the
			// environment alone can carry the configuration.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
