package app

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/pkg/utils"
)

type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	ListenAddr     string
	AllowedOrigins []string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

	origins := strings.Split(utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := Config{
		ServiceName:    "suresight-backend",
		Environment:    utils.GetEnv("ENVIRONMENT", "development", log),
		Version:        utils.GetEnv("SERVICE_VERSION", "dev", log),
		ListenAddr:     utils.GetEnv("LISTEN_ADDR", ":8080", log),
		AllowedOrigins: origins,
		JWTSecretKey:   jwtSecretKey,
		AccessTokenTTL: time.Duration(accessTokenTTLSeconds) * time.Second,
		AdminUsername:  utils.GetEnv("ADMIN_USERNAME", "", log),
		AdminEmail:     utils.GetEnv("ADMIN_EMAIL", "", log),
		AdminPassword:  utils.GetEnv("ADMIN_PASSWORD", "", log),
	}
	applyConfigFile(&cfg, utils.GetEnv("CONFIG_FILE", "", log), log)
	return cfg
}

// fileConfig is the optional YAML override file. Environment variables set
// the baseline; the file wins where both are present.
type fileConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Environment    string   `yaml:"environment"`
}

func applyConfigFile(cfg *Config, path string, log *logger.Logger) {
	if strings.TrimSpace(path) == "" {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Config file unreadable, using environment only", "path", path, "error", err)
		return
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Warn("Config file unparseable, using environment only", "path", path, "error", err)
		return
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	log.Info("Loaded config file overrides", "path", path)
}
