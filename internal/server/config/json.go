package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/asthmaguard/internal/flagx"
	"github.com/dmitrijs2005/asthmaguard/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file. Duration
// fields use timex.Duration so both "15m" and integer nanoseconds parse.
// Zero values leave the current setting untouched.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	GRPCHealthAddr              string         `json:"grpc_health_addr"`
	HealthCheckInterval         timex.Duration `json:"health_check_interval"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	SigningAlgorithm            string         `json:"signing_algorithm"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	StorageBackend              string         `json:"storage_backend"`
	StaticDir                   string         `json:"static_dir"`
	StaticPrefix                string         `json:"static_prefix"`
	ReportsDir                  string         `json:"reports_dir"`
	MaxUploadSize               int64          `json:"max_upload_size"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3PresignTTL                timex.Duration `json:"s3_presign_ttl"`
	GeminiAPIKey                string         `json:"gemini_api_key"`
	GeminiModel                 string         `json:"gemini_model"`
	LogLevel                    string         `json:"log_level"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag. Without either flag nothing happens. An unreadable file
// or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	str(&config.HTTPAddr, c.HTTPAddr)
	str(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	str(&config.DatabaseDSN, c.DatabaseDSN)
	str(&config.SecretKey, c.SecretKey)
	str(&config.SigningAlgorithm, c.SigningAlgorithm)
	str(&config.StorageBackend, c.StorageBackend)
	str(&config.StaticDir, c.StaticDir)
	str(&config.StaticPrefix, c.StaticPrefix)
	str(&config.ReportsDir, c.ReportsDir)
	str(&config.S3RootUser, c.S3RootUser)
	str(&config.S3RootPassword, c.S3RootPassword)
	str(&config.S3Bucket, c.S3Bucket)
	str(&config.S3Region, c.S3Region)
	str(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	str(&config.GeminiAPIKey, c.GeminiAPIKey)
	str(&config.GeminiModel, c.GeminiModel)
	str(&config.LogLevel, c.LogLevel)

	if c.HealthCheckInterval.Duration > 0 {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.S3PresignTTL.Duration > 0 {
		config.S3PresignTTL = c.S3PresignTTL.Duration
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}
