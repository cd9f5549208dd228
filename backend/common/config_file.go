package common

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const defaultConfigTemplate = "PORT=8084\nTUNEFUL_PROFILE=development\nSQLITE_PATH=tuneful.db\nUPLOAD_PATH=uploads\n"

var configKeys = []string{
	"PORT",
	"TUNEFUL_PROFILE",
	"SQL_DSN",
	"SQLITE_PATH",
	"UPLOAD_PATH",
	"BLOB_BACKEND",
	"S3_BUCKET",
	"S3_REGION",
	"S3_ENDPOINT",
	"S3_ACCESS_KEY",
	"S3_SECRET_KEY",
	"REDIS_CONN_STRING",
	"SONG_CACHE_TTL",
	"SERVER_ADDRESS",
	"ENABLE_GZIP",
	"TRUST_PROXY_HEADERS",
	"GLOBAL_API_RATE_LIMIT",
	"GLOBAL_API_RATE_LIMIT_DURATION",
}

// InitConfig layers the configuration sources: profile defaults, the ini
// file, then the environment (a .env file in the working directory is
// loaded into it first). An explicit --port flag wins over all of them.
func InitConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	configPath := *ConfigPath
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get user home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".config", "tuneful", "config.ini")
		if err := ensureConfigFile(configPath); err != nil {
			return err
		}
	}

	configMap, err := parseIniConfig(configPath)
	if err != nil {
		return err
	}
	for key, value := range envConfigMap() {
		configMap[key] = value
	}

	explicitPort, portSet := *Port, isFlagSet("port")
	if err := applyConfigMap(configMap); err != nil {
		return fmt.Errorf("apply config %s: %w", configPath, err)
	}
	if portSet {
		*Port = explicitPort
	}
	return nil
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func envConfigMap() map[string]string {
	configMap := make(map[string]string)
	for _, key := range configKeys {
		if value, ok := os.LookupEnv(key); ok {
			configMap[key] = strings.TrimSpace(value)
		}
	}
	return configMap
}

func ensureConfigFile(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", configDir, err)
	}

	configFile, err := os.OpenFile(configPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("create config file %s: %w", configPath, err)
	}
	defer configFile.Close()

	if _, err := configFile.WriteString(defaultConfigTemplate); err != nil {
		return fmt.Errorf("write default config file %s: %w", configPath, err)
	}

	return nil
}

func parseIniConfig(path string) (map[string]string, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse ini config %s: %w", path, err)
	}

	configMap := make(map[string]string)
	for _, section := range cfg.Sections() {
		for _, key := range section.Keys() {
			configKey := strings.ToUpper(strings.TrimSpace(key.Name()))
			if configKey == "" {
				continue
			}
			configMap[configKey] = strings.TrimSpace(key.Value())
		}
	}

	return configMap, nil
}

func applyProfile(profile Profile) error {
	switch profile {
	case ProfileDevelopment, ProfileProduction:
		SQLitePath = "tuneful.db"
		UploadPath = "uploads"
	case ProfileTesting:
		SQLitePath = "tuneful-test.db"
		UploadPath = "test-uploads"
	default:
		return fmt.Errorf("unknown profile %q", profile)
	}
	ActiveProfile = profile
	return nil
}

func applyConfigMap(configMap map[string]string) error {
	if configValue, ok := configMap["TUNEFUL_PROFILE"]; ok && configValue != "" {
		if err := applyProfile(Profile(strings.ToLower(configValue))); err != nil {
			return fmt.Errorf("invalid value for TUNEFUL_PROFILE: %w", err)
		}
	}

	if configValue, ok := configMap["PORT"]; ok && configValue != "" {
		portInt, err := strconv.Atoi(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for PORT: %w", err)
		}
		*Port = portInt
	}

	if configValue, ok := configMap["SQL_DSN"]; ok {
		SQLDSN = configValue
	}
	if configValue, ok := configMap["SQLITE_PATH"]; ok && configValue != "" {
		SQLitePath = configValue
	}
	if configValue, ok := configMap["UPLOAD_PATH"]; ok && configValue != "" {
		UploadPath = configValue
	}

	if configValue, ok := configMap["BLOB_BACKEND"]; ok && configValue != "" {
		backend := strings.ToLower(configValue)
		if backend != BlobBackendLocal && backend != BlobBackendS3 {
			return fmt.Errorf("invalid value for BLOB_BACKEND: %q", configValue)
		}
		BlobBackend = backend
	}
	if configValue, ok := configMap["S3_BUCKET"]; ok && configValue != "" {
		S3Bucket = configValue
	}
	if configValue, ok := configMap["S3_REGION"]; ok && configValue != "" {
		S3Region = configValue
	}
	if configValue, ok := configMap["S3_ENDPOINT"]; ok && configValue != "" {
		S3Endpoint = configValue
	}
	if configValue, ok := configMap["S3_ACCESS_KEY"]; ok && configValue != "" {
		S3AccessKey = configValue
	}
	if configValue, ok := configMap["S3_SECRET_KEY"]; ok && configValue != "" {
		S3SecretKey = configValue
	}

	if configValue, ok := configMap["REDIS_CONN_STRING"]; ok {
		RedisConnString = configValue
	}
	if configValue, ok := configMap["SONG_CACHE_TTL"]; ok && configValue != "" {
		ttl, err := time.ParseDuration(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for SONG_CACHE_TTL: %w", err)
		}
		SongCacheTTL = ttl
	}

	if configValue, ok := configMap["SERVER_ADDRESS"]; ok {
		ServerAddress = strings.TrimRight(configValue, "/")
	}

	if configValue, ok := configMap["ENABLE_GZIP"]; ok && configValue != "" {
		enableGzipBool, err := strconv.ParseBool(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for ENABLE_GZIP: %w", err)
		}
		EnableGzip = enableGzipBool
	}

	if configValue, ok := configMap["TRUST_PROXY_HEADERS"]; ok && configValue != "" {
		trust, err := strconv.ParseBool(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for TRUST_PROXY_HEADERS: %w", err)
		}
		TrustProxyHeaders = trust
	}

	if configValue, ok := configMap["GLOBAL_API_RATE_LIMIT"]; ok && configValue != "" {
		limit, err := strconv.Atoi(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for GLOBAL_API_RATE_LIMIT: %w", err)
		}
		GlobalApiRateLimitNum = limit
	}
	if configValue, ok := configMap["GLOBAL_API_RATE_LIMIT_DURATION"]; ok && configValue != "" {
		seconds, err := strconv.ParseInt(configValue, 10, 64)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("invalid value for GLOBAL_API_RATE_LIMIT_DURATION: %q", configValue)
		}
		GlobalApiRateLimitDuration = seconds
	}

	return nil
}

func PrintHelp() {
	fmt.Println("Tuneful " + Version + " - music file catalog")
	fmt.Println("Usage: tuneful [--port <port>] [--log-dir <log directory>] [--config <ini file>] [--version] [--help]")
}
