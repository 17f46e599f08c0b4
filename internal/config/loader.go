package config

import (
	"fmt"

	"github.com/rpattn/btlportal/internal/db"
	"github.com/spf13/viper"
)

// Server holds HTTP layer settings.
type Server struct {
	Port      int
	PublicDir string
	UploadDir string
}

// App bundles everything main needs to wire the service.
type App struct {
	DB     db.Config
	Server Server
}

// DefaultServer returns default HTTP settings.
func DefaultServer() Server {
	return Server{
		Port:      8080,
		PublicDir: "./public",
		UploadDir: "./uploads",
	}
}

// Load reads config.yaml from configPath, falling back to defaults and
// environment overrides (BTL_DATABASE_HOST, BTL_SERVER_PORT, ...).
func Load(configPath string) (App, error) {
	cfg := App{
		DB:     db.DefaultConfig(),
		Server: DefaultServer(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("BTL")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.port")
	v.BindEnv("server.public_dir")
	v.BindEnv("server.upload_dir")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.public_dir") {
		cfg.Server.PublicDir = v.GetString("server.public_dir")
	}
	if v.IsSet("server.upload_dir") {
		cfg.Server.UploadDir = v.GetString("server.upload_dir")
	}

	return cfg, nil
}
