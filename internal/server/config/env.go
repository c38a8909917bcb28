package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests. godotenv never overrides variables that
// are already set in the process environment.
var loadDotEnv = func() error {
	return godotenv.Load()
}

// parseEnv overlays values from a .env file (if present) and the process
// environment.
//
// Recognised variables:
//
//	DATABASE_DSN, or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD/DB_SSLMODE
//	SECRET_KEY, ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES
//	HTTP_ADDR, GRPC_HEALTH_ADDR
//	STORAGE_BACKEND, STATIC_DIR
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
//	GOOGLE_API_KEY, GEMINI_MODEL
//	LOG_LEVEL, CORS_ALLOWED_ORIGINS (comma separated)
//
// A malformed ACCESS_TOKEN_EXPIRE_MINUTES panics, like a malformed JSON file.
func parseEnv(config *Config) {
	_ = loadDotEnv()

	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if dsn := dsnFromEnv(); dsn != "" {
		config.DatabaseDSN = dsn
	}

	setString(&config.SecretKey, "SECRET_KEY")
	setString(&config.SigningAlgorithm, "ALGORITHM")
	setString(&config.HTTPAddr, "HTTP_ADDR")
	setString(&config.GRPCHealthAddr, "GRPC_HEALTH_ADDR")
	setString(&config.StorageBackend, "STORAGE_BACKEND")
	setString(&config.StaticDir, "STATIC_DIR")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.GeminiAPIKey, "GOOGLE_API_KEY")
	setString(&config.GeminiModel, "GEMINI_MODEL")
	setString(&config.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err))
		}
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}
}

func dsnFromEnv() string {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + os.Getenv("DB_NAME"),
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
