// Package config loads service configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	App struct {
		Env  string `mapstructure:"env"`
		Name string `mapstructure:"name"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr            string        `mapstructure:"addr"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN              string        `mapstructure:"dsn"`
		MaxConns         int32         `mapstructure:"max_conns"`
		MinConns         int32         `mapstructure:"min_conns"`
		StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	} `mapstructure:"postgres"`

	Redis struct {
		Addr    string        `mapstructure:"addr"`
		DB      int           `mapstructure:"db"`
		TTL     time.Duration `mapstructure:"ttl"`
		Enabled bool          `mapstructure:"enabled"`
	} `mapstructure:"redis"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// Load reads configuration from the given file (optional) with environment
// overrides. Environment variables use the KARDEX_ prefix with underscores,
// e.g. KARDEX_POSTGRES_DSN, KARDEX_AUTH_JWT_SECRET.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KARDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.name", "kardex")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.statement_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}
